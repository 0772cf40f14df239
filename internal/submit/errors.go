package submit

import "fmt"

// Stage identifies the phase of a submission at which a failure occurred,
// so operators see "auth" or "send" instead of a bare socket error.
type Stage string

const (
	// StageConnect covers DNS, TCP, and implicit-TLS handshake failures.
	StageConnect Stage = "connect"

	// StageStartTLS covers a rejected STARTTLS command or a failed
	// handshake during the upgrade.
	StageStartTLS Stage = "starttls"

	// StageAuth covers rejected credentials.
	StageAuth Stage = "auth"

	// StageSend covers envelope or data rejection during transmission.
	StageSend Stage = "send"
)

// Error wraps a failure with the submission stage it occurred in.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) *Error {
	return &Error{Stage: stage, Err: err}
}
