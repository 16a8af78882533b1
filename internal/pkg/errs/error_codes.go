/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1005

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1006
)

// 2xxx: Messaging and Conversation Errors
const (
	// ErrMessageEmpty indicates that a message carried neither text nor an image.
	ErrMessageEmpty = 2101

	// ErrMessageContentTooLong indicates that the message text exceeded the maximum length limit.
	ErrMessageContentTooLong = 2102

	// ErrRecipientNotFound indicates that the message recipient does not exist.
	ErrRecipientNotFound = 2103

	// ErrFileSizeTooLarge indicates that an attached image exceeded the size limit.
	ErrFileSizeTooLarge = 2104

	// ErrAttachmentInvalid indicates that an attached image has a disallowed type or key.
	ErrAttachmentInvalid = 2105

	// ErrNoPeerSelected indicates that a conversation operation was attempted
	// without an active peer selection.
	ErrNoPeerSelected = 2201
)

// 3xxx: User, Session, and Connection Errors
const (
	// ErrInvalidEmail indicates that the supplied email address is malformed.
	ErrInvalidEmail = 3001

	// ErrInvalidPassword indicates that the supplied password does not meet requirements.
	ErrInvalidPassword = 3002

	// ErrInvalidFullName indicates that the supplied display name is empty or too long.
	ErrInvalidFullName = 3003

	// ErrUserAlreadyExists indicates that an account with the email already exists.
	ErrUserAlreadyExists = 3004

	// ErrInvalidCredentials indicates that the email/password pair did not match.
	ErrInvalidCredentials = 3005

	// ErrUserNotFound indicates that the requested account does not exist.
	ErrUserNotFound = 3006

	// ErrAlreadyLoggedIn indicates that an authenticated caller attempted to sign up or sign in again.
	ErrAlreadyLoggedIn = 3007

	// ErrUnauthorized indicates that the request lacks a valid identity.
	ErrUnauthorized = 3008

	// ErrDuplicateConnection indicates that a connection handle was registered
	// while the same connection is already live.
	ErrDuplicateConnection = 3101

	// ErrConnectionLost indicates that the live connection to the server failed.
	ErrConnectionLost = 3102
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates that an object storage operation failed.
	ErrFileStorageFailed = 5001
)
