package expand

import (
	"fmt"
	"strings"

	"prefmacro/internal/ast"
	"prefmacro/internal/parser"
)

// render parses generated text into a synthetic declaration. Every emitted
// declaration goes through here, so a template bug surfaces as an error
// instead of as broken output.
func render(text string) (ast.Decl, error) {
	return parser.ParseDecl(text)
}

func renderf(format string, args ...any) (ast.Decl, error) {
	return render(fmt.Sprintf(format, args...))
}

// attribute renders a single attribute such as `@Stored(in: .memory)`.
func attribute(text string) (ast.Attribute, error) {
	d, err := render(text + " var _ = 0")
	if err != nil {
		return ast.Attribute{}, err
	}
	attrs := d.Attributes()
	if len(attrs) != 1 {
		return ast.Attribute{}, fmt.Errorf("%q is not a single attribute", text)
	}
	return attrs[0], nil
}

// indentLines shifts every line but the first by indent.
func indentLines(s, indent string) string {
	if indent == "" {
		return s
	}
	return strings.ReplaceAll(s, "\n", "\n"+indent)
}

var swiftEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// quote renders s as a Swift string literal.
func quote(s string) string {
	return `"` + swiftEscaper.Replace(s) + `"`
}
