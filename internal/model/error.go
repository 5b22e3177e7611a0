package model

import "net/http"

// Rejection reasons surfaced in the {error: ...} body.
const (
	ReasonInvalidAddress          = "InvalidAddress"
	ReasonNotFreshAccount         = "OnlyNewAccountsCanBeUsedForScreenedMembers"
	ReasonHandleTooShort          = "HandleTooShort"
	ReasonHandleTooLong           = "HandleTooLong"
	ReasonHandleAlreadyRegistered = "HandleAlreadyRegistered"
	ReasonMissingCaptchaToken     = "MissingCaptchaToken"
	ReasonInvalidCaptchaToken     = "InvalidCaptchaToken"
	ReasonUnauthorized            = "Unauthorized"
	ReasonFaucetExhausted         = "FaucetExhausted"
	ReasonTooManyRequests         = "TooManyRequests"
	ReasonTooManyRequestsPerIP    = "TooManyRequestsPerIp"
	ReasonNodeNotReady            = "NodeNotReady"
	ReasonInternalServerError     = "InternalServerError"
)

// PipelineError is a terminal rejection from the registration pipeline.
// Reason is the user-visible error name, Status the HTTP status to send,
// Data optional extra fields merged into the response body.
type PipelineError struct {
	Reason string
	Status int
	Data   map[string]interface{}
}

func (e *PipelineError) Error() string {
	return e.Reason
}

func (e *PipelineError) Body() map[string]interface{} {
	body := map[string]interface{}{"error": e.Reason}
	for k, v := range e.Data {
		body[k] = v
	}
	return body
}

func NewPipelineError(reason string, status int) *PipelineError {
	return &PipelineError{Reason: reason, Status: status}
}

func BadRequest(reason string) *PipelineError {
	return NewPipelineError(reason, http.StatusBadRequest)
}

func Unauthorized() *PipelineError {
	return NewPipelineError(ReasonUnauthorized, http.StatusForbidden)
}

func InternalError() *PipelineError {
	return NewPipelineError(ReasonInternalServerError, http.StatusInternalServerError)
}
