/*
Package req provides helpers for HTTP request parsing and data binding.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"mingle/internal/pkg/errs"
)

// MaxJSONBodySize caps the size of a JSON request body (1 MB).
const MaxJSONBodySize int64 = 1 << 20

// BindJSON binds the JSON request body to dst, rejecting unknown fields,
// wrong content types, and trailing data.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
