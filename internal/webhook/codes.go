package webhook

// Provider response codes carried on callback query strings.
const (
	CodeOK           = "OK"
	CodeCancel       = "CANCEL"
	CodeNotSupported = "NOT_SUPPORTED"
)

// Developer-facing error codes surfaced on the result pages. These are
// shown to app developers debugging their payment integration, never
// parsed by machines, but they are stable identifiers all the same.
const (
	NoActiveTrans   = "NO_ACTIVE_TRANS"
	NoticeError     = "NOTICE_ERROR"
	BadProviderCode = "BAD_PROVIDER_CODE"
	UnsupportedPay  = "UNSUPPORTED_PAY"
	ProviderError   = "PROVIDER_ERROR"
	UserCancelled   = "USER_CANCELLED"
	BackendDisabled = "BACKEND_DISABLED"
)

// State tracks how far a callback made it through the pipeline.
type State string

const (
	StateReceived   State = "received"
	StateValidated  State = "validated"
	StateRecorded   State = "recorded"
	StateDispatched State = "dispatched"
	StateRejected   State = "rejected"
	StateFailed     State = "failed"
)

// Result is the outcome of processing one callback. Code is a developer
// error code, or "" when nothing went wrong.
type Result struct {
	State State
	Code  string
}

// OK reports whether the callback was fully processed.
func (r Result) OK() bool {
	return r.Code == ""
}
