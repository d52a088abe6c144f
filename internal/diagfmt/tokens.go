package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"prefmacro/internal/source"
	"prefmacro/internal/token"
)

type TokenOutput struct {
	Kind    string      `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Span    source.Span `json:"span"`
	Leading []string    `json:"leading,omitempty"`
}

func triviaKinds(tv []token.Trivia) []string {
	if len(tv) == 0 {
		return nil
	}
	out := make([]string, len(tv))
	for i, t := range tv {
		out[i] = t.Kind.String()
	}
	return out
}

// FormatTokensPretty выводит токены в человекочитаемом формате
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		if _, err := fmt.Fprintf(w, "%3d: %-15s", i+1, tok.Kind.String()); err != nil {
			return err
		}
		if tok.Text != "" {
			fmt.Fprintf(w, " %q", tok.Text)
		}
		if resolvable(fs, tok.Span) {
			start, end := fs.Resolve(tok.Span)
			fmt.Fprintf(w, " at %d:%d-%d:%d", start.Line, start.Col, end.Line, end.Col)
		}
		if leading := triviaKinds(tok.Leading); len(leading) > 0 {
			fmt.Fprintf(w, " (leading: %s)", strings.Join(leading, ", "))
		}
		fmt.Fprintln(w)
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, tokens []token.Token) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		output = append(output, TokenOutput{
			Kind:    tok.Kind.String(),
			Text:    tok.Text,
			Span:    tok.Span,
			Leading: triviaKinds(tok.Leading),
		})
		if tok.Kind == token.EOF {
			break
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
