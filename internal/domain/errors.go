package domain

import "fmt"

// ConfigurationError reports malformed or inconsistent input. It is raised
// before any modeling begins and is never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Reason)
	}
	return fmt.Sprintf("configuration error in %v: %v", e.Field, e.Reason)
}

func Configurationf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InfeasibleModelError reports a session that static pruning proved
// unschedulable: no room/professor/slot combination can ever satisfy it,
// so invoking a solver would be pointless.
type InfeasibleModelError struct {
	SessionID string
	Reason    string
}

func (e *InfeasibleModelError) Error() string {
	return fmt.Sprintf("session %v cannot be scheduled: %v", e.SessionID, e.Reason)
}

func Infeasiblef(sessionID, format string, args ...any) error {
	return &InfeasibleModelError{SessionID: sessionID, Reason: fmt.Sprintf(format, args...)}
}

// EncodingError reports an internal contradiction during constraint
// construction. A correct encoder never produces one.
type EncodingError struct {
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error: %v", e.Reason)
}

func Encodingf(format string, args ...any) error {
	return &EncodingError{Reason: fmt.Sprintf(format, args...)}
}
