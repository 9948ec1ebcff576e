package messenger

type ErrorCode string

const (
	ErrorCodeValidation       ErrorCode = "validation_error"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeNoSelection      ErrorCode = "no_selection"
	ErrorCodeAppendRejected   ErrorCode = "append_rejected"
	ErrorCodeUploadFailed     ErrorCode = "upload_failed"
	ErrorCodeSubscriptionLost ErrorCode = "subscription_lost"
	ErrorCodeInternal         ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
