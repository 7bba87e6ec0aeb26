package router

import "fmt"

// FailureKind classifies why a handler could not answer.
type FailureKind int

const (
	// AdapterFailure is a content adapter erroring, timing out or panicking.
	AdapterFailure FailureKind = iota + 1
	// ValidationFailure is a command with missing or malformed arguments.
	ValidationFailure
	// PersistenceFailure is the ledger store failing to save.
	PersistenceFailure
)

func (k FailureKind) String() string {
	switch k {
	case AdapterFailure:
		return "adapter"
	case ValidationFailure:
		return "validation"
	case PersistenceFailure:
		return "persistence"
	default:
		return "unknown"
	}
}

// Failure carries the user-facing sentence for a failed command and the
// underlying error, if any, for the log.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s failure: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s failure: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Result is what a handler produces: replies on success, or a failure.
// SaveErr is set when the answer stands but persisting it failed.
type Result struct {
	Replies []Reply
	Failure *Failure
	SaveErr error
}

func ok(replies ...Reply) Result { return Result{Replies: replies} }

func invalid(format string, args ...any) Result {
	return Result{Failure: &Failure{Kind: ValidationFailure, Message: fmt.Sprintf(format, args...)}}
}

func adapterFailed(err error, message string) Result {
	return Result{Failure: &Failure{Kind: AdapterFailure, Message: message, Err: err}}
}

func (r Result) withSaveErr(err error) Result {
	r.SaveErr = err
	return r
}

func (r Result) outcome() string {
	if r.Failure != nil {
		return r.Failure.Kind.String()
	}
	return "ok"
}
