// Package diag defines the diagnostic model shared by the front end, the
// expansion engine and the CLI.
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – numeric identifier with a stable textual form (LEX1001, EXP3003).
//   - Message – short, actionable text.
//   - Primary – the source.Span the diagnostic is anchored to.
//   - Notes – optional secondary spans.
//   - Fixes – optional Fix records.
//
// A Fix carries concrete TextEdits or a FixThunk that builds them on demand.
// The expansion engine describes repairs as sub-tree replacements; the driver
// lowers them to thunks so the edits are printed only when a renderer or the
// fix engine asks for them (see MaterializeFixes). OldText on a TextEdit is a
// guard checked by the fix engine before the edit is applied.
//
// Producers emit through a Reporter; BagReporter collects into a Bag, which
// supports limits, sorting, deduplication and filtering. Rendering lives in
// internal/diagfmt and application of fixes in internal/fix.
package diag
