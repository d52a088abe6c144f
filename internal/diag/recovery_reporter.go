package diag

import "prefmacro/internal/source"

// RecoveryReporter sits between the parser and the bag while the parser
// resynchronizes after a syntax error. Recovery re-reads tokens, so the
// same error tends to come back, and a missing delimiter usually drags a
// second error with it at the very same offset. Only the first error at an
// offset is forwarded; other severities are dropped on exact repeats only.
type RecoveryReporter struct {
	next   Reporter
	seen   map[reported]struct{}
	errors map[offset]struct{}
	// Dropped counts suppressed reports.
	Dropped int
}

type offset struct {
	file  source.FileID
	start uint32
}

type reported struct {
	code Code
	sev  Severity
	span source.Span
	msg  string
}

// NewRecoveryReporter forwards to next.
func NewRecoveryReporter(next Reporter) *RecoveryReporter {
	return &RecoveryReporter{
		next:   next,
		seen:   make(map[reported]struct{}),
		errors: make(map[offset]struct{}),
	}
}

func (r *RecoveryReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r == nil {
		return
	}
	key := reported{code: code, sev: sev, span: primary, msg: msg}
	if _, dup := r.seen[key]; dup {
		r.Dropped++
		return
	}
	if sev >= SevError {
		at := offset{file: primary.File, start: primary.Start}
		if _, cascade := r.errors[at]; cascade {
			r.Dropped++
			return
		}
		r.errors[at] = struct{}{}
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes, fixes)
	}
}
