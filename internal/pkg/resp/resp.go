/*
Package resp provides helpers for sending standardized HTTP JSON responses.

Every REST response shares one envelope: a business code (0 on success), a
message, and an optional data payload.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"mingle/internal/pkg/errs"
	"mingle/internal/pkg/logx"
)

// JSONResponse is the envelope returned to clients by every REST endpoint.
type JSONResponse struct {
	// Code is the business status code (0 for success, see the errs package otherwise).
	Code int `json:"code"`

	// Message is the client-facing status description.
	Message string `json:"message"`

	// Data is the optional response payload.
	Data any `json:"data,omitempty"`
}

// RespondJSON sets the JSON headers and writes the payload with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondSuccess sends an HTTP 200 response with the success envelope.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	res := JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	}
	RespondJSON(w, r, http.StatusOK, res)
}

// RespondError sends the error envelope for a CustomError.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	res := JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
		Data:    nil,
	}
	RespondJSON(w, r, customErr.Status, res)
}
