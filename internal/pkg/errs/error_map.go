/*
Package errs provides the application error type and the error code catalog.

errorMap ties every code to its client-safe message and, where relevant, a
non-200 HTTP status.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Messaging Errors
	ErrMessageTextTooLong:    {Code: ErrMessageTextTooLong, Message: "Message is too long."},
	ErrRecipientInvalid:      {Code: ErrRecipientInvalid, Message: "Recipient not recognized."},
	ErrAttachmentKeyInvalid:  {Code: ErrAttachmentKeyInvalid, Message: "Invalid attachment."},
	ErrAttachmentTypeInvalid: {Code: ErrAttachmentTypeInvalid, Message: "This file type is not supported."},
	ErrAttachmentTooLarge:    {Code: ErrAttachmentTooLarge, Message: "File is too large."},

	// 3xxx: Authentication and Session Errors
	ErrTokenExpired:    {Code: ErrTokenExpired, Message: "Your session has expired. Please sign in again.", Status: http.StatusUnauthorized},
	ErrTokenMalformed:  {Code: ErrTokenMalformed, Message: "Sign-in token not recognized.", Status: http.StatusUnauthorized},
	ErrTokenInvalid:    {Code: ErrTokenInvalid, Message: "Sign-in token rejected.", Status: http.StatusUnauthorized},
	ErrUnauthorized:    {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrSessionReplaced: {Code: ErrSessionReplaced, Message: "You signed in from another device or tab."},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrMessageNotSaved:   {Code: ErrMessageNotSaved, Message: "Message could not be saved. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again."},
}
