package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"prefmacro/internal/ast"
	"prefmacro/internal/source"
	"prefmacro/internal/token"
)

// CheckRoundTrip verifies that printing the tree reproduces the file byte
// for byte.
func CheckRoundTrip(f *ast.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}
	if got := ast.Print(f); got != string(sf.Content) {
		return fmt.Errorf("round trip mismatch:\n got: %q\nwant: %q", got, sf.Content)
	}
	return nil
}

// CheckSpanInvariants runs the span invariants of a tree read from sf:
// 1) every token and trivia span points at sf and lies within its content
// 2) spans are ordered and do not overlap
// 3) the text under each span equals the token or trivia text
// 4) tokens and trivia together cover the content without gaps
func CheckSpanInvariants(f *ast.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	var pos uint32
	check := func(what string, sp source.Span, text string) error {
		if sp.File != sf.ID {
			return fmt.Errorf("%s %q: span file mismatch: got=%d want=%d", what, text, sp.File, sf.ID)
		}
		if sp.End < sp.Start || sp.End > size {
			return fmt.Errorf("%s %q: span %v out of bounds (size %d)", what, text, sp, size)
		}
		if sp.Start != pos {
			return fmt.Errorf("%s %q: span %v starts at %d, want %d", what, text, sp, sp.Start, pos)
		}
		if got := string(sf.Content[sp.Start:sp.End]); got != text {
			return fmt.Errorf("%s: span %v covers %q, token text is %q", what, sp, got, text)
		}
		pos = sp.End
		return nil
	}

	for _, tok := range f.Tokens() {
		for _, tv := range tok.Leading {
			if err := check("trivia", tv.Span, tv.Text); err != nil {
				return err
			}
		}
		if tok.Kind == token.EOF {
			continue
		}
		if err := check("token", tok.Span, tok.Text); err != nil {
			return err
		}
	}
	if pos != size {
		return fmt.Errorf("tokens cover %d of %d bytes", pos, size)
	}
	return nil
}
