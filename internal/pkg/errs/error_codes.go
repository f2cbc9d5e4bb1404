/*
Package errs provides the application error type and the error code catalog.

The codes below identify specific failure modes both in server logs and in the
error events sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after the JSON body.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate exceeded the configured limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Messaging Errors
const (
	// ErrMessageTextTooLong indicates that a message body exceeded the maximum length.
	ErrMessageTextTooLong = 2001

	// ErrRecipientInvalid indicates a send request with a missing or malformed recipient.
	ErrRecipientInvalid = 2002

	// ErrAttachmentKeyInvalid indicates an attachment reference outside the sender's namespace.
	ErrAttachmentKeyInvalid = 2003

	// ErrAttachmentTypeInvalid indicates a file name or MIME type outside the allowed set.
	ErrAttachmentTypeInvalid = 2004

	// ErrAttachmentTooLarge indicates an attachment above the size limit.
	ErrAttachmentTooLarge = 2005
)

// 3xxx: Authentication and Session Errors
const (
	// ErrTokenExpired indicates a token that was valid once but has expired.
	ErrTokenExpired = 3001

	// ErrTokenMalformed indicates a token that could not be parsed at all.
	ErrTokenMalformed = 3002

	// ErrTokenInvalid indicates a well-formed token that failed validation (bad signature, wrong issuer).
	ErrTokenInvalid = 3003

	// ErrUnauthorized indicates a request that requires a signed-in identity.
	ErrUnauthorized = 3004

	// ErrSessionReplaced indicates a connection closed because the same identity connected again.
	ErrSessionReplaced = 3005
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000

	// ErrMessageNotSaved indicates that persisting a message to the history store failed.
	ErrMessageNotSaved = 5001

	// ErrFileStorageFailed indicates that the object storage backend rejected an operation.
	ErrFileStorageFailed = 5002
)
