package diag

import "propweave/internal/source"

// CallbackLogger adapts the host's logging callbacks to a Reporter.
// Nil callbacks are skipped; located variants fall back to the plain ones
// when unset or when the span carries no location.
type CallbackLogger struct {
	LogInfo         func(msg string)
	LogWarning      func(msg string)
	LogWarningPoint func(msg string, at source.Span)
	LogError        func(msg string)
	LogErrorPoint   func(msg string, at source.Span)
}

func (l CallbackLogger) Report(d Diagnostic) {
	text := d.Code.ID() + ": " + d.Message
	primary := d.Primary
	switch d.Severity {
	case SevError:
		if l.LogErrorPoint != nil && !primary.IsZero() {
			l.LogErrorPoint(text, primary)
			return
		}
		if l.LogError != nil {
			l.LogError(text)
		}
	case SevWarning:
		if l.LogWarningPoint != nil && !primary.IsZero() {
			l.LogWarningPoint(text, primary)
			return
		}
		if l.LogWarning != nil {
			l.LogWarning(text)
		}
	default:
		if l.LogInfo != nil {
			l.LogInfo(text)
		}
	}
}
