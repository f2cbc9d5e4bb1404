package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mingle/internal/app/chat"
	"mingle/internal/pkg/auth/jwt"
	"mingle/internal/pkg/errs"
	"mingle/internal/pkg/req"
	"mingle/internal/pkg/resp"
)

// PresignUploadInput is the JSON body for requesting an upload URL.
type PresignUploadInput struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// HandlePresignUpload generates a time-limited presigned URL for uploading an
// attachment. The object key is namespaced by the uploading user, which is
// what ties an attachment reference to its sender at send time.
func HandlePresignUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input PresignUploadInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := chat.ValidateAttachmentSize(input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := chat.ValidateAttachmentType(input.FileName, input.MimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileExt := strings.ToLower(filepath.Ext(input.FileName))
		fileKey := fmt.Sprintf("%s%s%s", chat.AttachmentOwnerPrefix(payload.UserID), uuid.New().String(), fileExt)

		url, err := deps.Storage.PresignUpload(
			r.Context(),
			fileKey,
			input.MimeType,
			input.FileSize,
			chat.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl":  url,
			"attachmentRef": fileKey,
			"fileName":      input.FileName,
		})
	}
}

// HandleDirectUpload accepts a multipart upload and writes the object through
// the server. It exists for clients that cannot issue a presigned PUT (old
// browsers, proxied networks); presigned upload remains the primary path.
func HandleDirectUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		// Multipart framing adds overhead on top of the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, chat.MaxAttachmentSize+64*1024)

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams, "missing or oversized file part"))
			return
		}
		defer file.Close()

		if customErr := chat.ValidateAttachmentSize(header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if customErr := chat.ValidateAttachmentType(header.Filename, mimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileExt := strings.ToLower(filepath.Ext(header.Filename))
		fileKey := fmt.Sprintf("%s%s%s", chat.AttachmentOwnerPrefix(payload.UserID), uuid.New().String(), fileExt)

		if err := deps.Storage.Upload(r.Context(), fileKey, mimeType, file); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"attachmentRef": fileKey,
			"fileName":      header.Filename,
		})
	}
}

// HandleAttachmentDelete removes an uploaded attachment object. Only the owner
// may delete: the key must sit under the caller's own namespace, so a user can
// clean up an upload they abandoned but never someone else's.
func HandleAttachmentDelete(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" || !strings.HasPrefix(fileKey, chat.AttachmentOwnerPrefix(payload.UserID)) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Storage.Delete(r.Context(), fileKey); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandlePresignDownload redirects to a time-limited download URL for an
// attachment key. Any signed-in user may fetch an attachment they hold a
// reference to; references only circulate inside delivered messages.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" || !strings.HasPrefix(fileKey, "chat/") {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if _, err := deps.Storage.Stat(r.Context(), fileKey); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		url, err := deps.Storage.PresignDownload(
			r.Context(),
			fileKey,
			chat.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
