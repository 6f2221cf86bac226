package types

import (
	"errors"
	"fmt"
)

// ErrNoSpeakerMatch reports a transcript where no line matched any configured
// speaker pattern. Downstream extraction quality depends on speaker
// attribution, so this aborts the run instead of degrading it.
var ErrNoSpeakerMatch = errors.New("no line matched a configured speaker pattern")

// ConfigError reports an invalid or incomplete pipeline configuration.
// Configuration is validated before any stage executes.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// CapabilityError reports a failed capability invocation: local model
// inference or a generative API call. A timeout is an extraction failure,
// not a pipeline failure; callers recover through schema defaults and flag
// the affected record as degraded.
type CapabilityError struct {
	Capability string
	Timeout    bool

	// Status is the HTTP status of a failed remote call, 0 when the failure
	// never produced a response. Client errors (4xx) are not retried by the
	// invocation layer.
	Status int

	Err error
}

func (e *CapabilityError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s capability timed out: %v", e.Capability, e.Err)
	}
	return fmt.Sprintf("%s capability failed: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }
