package chat

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"mingle/internal/pkg/errs"
)

const (
	// MaxAttachmentSizeMB is the maximum allowed file size in megabytes.
	MaxAttachmentSizeMB = 5

	// MaxAttachmentSize is the maximum allowed file size in bytes.
	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// PresignedURLDuration is how long a generated upload or download URL stays valid.
	PresignedURLDuration = 5 * time.Minute
)

// AllowedMIMETypes is the set of permitted MIME types for attachments.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ExtToMIME maps file extensions to their expected MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// AttachmentOwnerPrefix returns the object key prefix a user may upload under.
// Every attachment key is namespaced by its sender so a message can only
// reference files the sender uploaded.
func AttachmentOwnerPrefix(userID string) string {
	return fmt.Sprintf("chat/%s/", userID)
}

// ValidateAttachmentSize checks that the declared file size is positive and
// within the limit.
func ValidateAttachmentSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrAttachmentTooLarge)
	}

	return nil
}

// ValidateAttachmentType checks the file name extension against the declared
// MIME type and the allowed set.
func ValidateAttachmentType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrAttachmentTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) < 2 {
		return errs.NewError(errs.ErrAttachmentTypeInvalid)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok {
		return errs.NewError(errs.ErrAttachmentTypeInvalid)
	}

	if expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrAttachmentTypeInvalid)
	}

	return nil
}

// ValidateAttachmentRef checks that an attachment reference on a send request
// points inside the sender's namespace and carries an allowed extension.
func ValidateAttachmentRef(senderID string, key string) *errs.CustomError {
	if !strings.HasPrefix(key, AttachmentOwnerPrefix(senderID)) {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}

	ext := strings.ToLower(filepath.Ext(key))
	if _, ok := ExtToMIME[ext]; !ok {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}

	return nil
}
