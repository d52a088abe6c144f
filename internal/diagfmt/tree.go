package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"prefmacro/internal/ast"
	"prefmacro/internal/source"
	"prefmacro/internal/token"
)

// TreeNode is one node of the declaration tree printed by `parse`.
type TreeNode struct {
	Type     string            `json:"type"`
	Label    string            `json:"label,omitempty"`
	Span     string            `json:"span,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Children []*TreeNode       `json:"children,omitempty"`
}

// BuildTree converts a parsed file into a TreeNode hierarchy.
func BuildTree(file *ast.File, fs *source.FileSet, path string) *TreeNode {
	root := &TreeNode{Type: "File", Label: path}
	if file == nil {
		return root
	}
	for _, d := range file.Decls {
		root.Children = append(root.Children, declNode(d, fs))
	}
	return root
}

func declNode(d ast.Decl, fs *source.FileSet) *TreeNode {
	n := &TreeNode{Span: formatSpan(ast.SpanOf(d), fs)}
	switch d := d.(type) {
	case *ast.TypeDecl:
		n.Type = "TypeDecl"
		n.Label = d.Introducer.Text + " " + d.Name.Text
		if h := joinTokens(d.Header); h != "" {
			n.Fields = map[string]string{"header": h}
		}
		n.Children = append(n.Children, attrNodes(d.Attrs, d.Mods)...)
		for _, m := range d.Members {
			n.Children = append(n.Children, declNode(m, fs))
		}
	case *ast.ExtensionDecl:
		n.Type = "ExtensionDecl"
		n.Label = "extension " + joinTokens(d.Header)
		n.Children = append(n.Children, attrNodes(d.Attrs, d.Mods)...)
		for _, m := range d.Members {
			n.Children = append(n.Children, declNode(m, fs))
		}
	case *ast.VarDecl:
		n.Type = "VarDecl"
		n.Label = d.Keyword.Text
		n.Children = append(n.Children, attrNodes(d.Attrs, d.Mods)...)
		for _, b := range d.Bindings {
			n.Children = append(n.Children, bindingNode(b, fs))
		}
	case *ast.FuncDecl:
		n.Type = "FuncDecl"
		n.Label = strings.TrimSpace(d.Keyword.Text + " " + joinTokens(d.Signature))
		n.Children = append(n.Children, attrNodes(d.Attrs, d.Mods)...)
		if d.Body != nil {
			n.Fields = map[string]string{"body": fmt.Sprintf("%d tokens", len(d.Body.Body))}
		}
	case *ast.OtherDecl:
		n.Type = "OtherDecl"
		n.Label = clip(joinTokens(d.Toks), 40)
		n.Children = append(n.Children, attrNodes(d.Attrs, d.Mods)...)
	}
	return n
}

func bindingNode(b ast.Binding, fs *source.FileSet) *TreeNode {
	n := &TreeNode{
		Type:  "Binding",
		Label: joinTokens(b.Pattern),
		Span:  formatSpan(ast.SpanOf(b), fs),
	}
	fields := map[string]string{}
	if !b.Type.IsEmpty() {
		fields["type"] = b.Type.Text()
	}
	if b.HasInitializer() {
		fields["init"] = clip(joinTokens(b.Init.Toks), 40)
	}
	if b.Accessor != nil {
		fields["accessor"] = "block"
	}
	if len(fields) > 0 {
		n.Fields = fields
	}
	return n
}

func attrNodes(attrs []ast.Attribute, mods []ast.Modifier) []*TreeNode {
	out := make([]*TreeNode, 0, len(attrs)+len(mods))
	for _, a := range attrs {
		out = append(out, &TreeNode{Type: "Attribute", Label: ast.PrintTrimmed(a)})
	}
	for _, m := range mods {
		out = append(out, &TreeNode{Type: "Modifier", Label: ast.PrintTrimmed(m)})
	}
	return out
}

// joinTokens prints tokens with single spaces in place of their trivia.
func joinTokens(toks []token.Token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && len(t.Leading) > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatSpan(span source.Span, fs *source.FileSet) string {
	if !span.IsValid() {
		return ""
	}
	if resolvable(fs, span) {
		start, end := fs.Resolve(span)
		return fmt.Sprintf("%d:%d-%d:%d", start.Line, start.Col, end.Line, end.Col)
	}
	return fmt.Sprintf("span(%d-%d)", span.Start, span.End)
}

// FormatTreePretty prints the tree with box-drawing connectors.
func FormatTreePretty(w io.Writer, root *TreeNode) error {
	if _, err := fmt.Fprintln(w, root.title()); err != nil {
		return err
	}
	writeChildren(w, root.Children, "")
	return nil
}

func writeChildren(w io.Writer, nodes []*TreeNode, prefix string) {
	for i, n := range nodes {
		branch, next := "├─ ", "│  "
		if i == len(nodes)-1 {
			branch, next = "└─ ", "   "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, branch, n.title())
		writeChildren(w, n.Children, prefix+next)
	}
}

func (n *TreeNode) title() string {
	var b strings.Builder
	b.WriteString(n.Type)
	if n.Label != "" {
		b.WriteString(": ")
		b.WriteString(n.Label)
	}
	if len(n.Fields) > 0 {
		keys := make([]string, 0, len(n.Fields))
		for k := range n.Fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + n.Fields[k]
		}
		fmt.Fprintf(&b, " {%s}", strings.Join(parts, ", "))
	}
	if n.Span != "" {
		fmt.Fprintf(&b, " (span: %s)", n.Span)
	}
	return b.String()
}

// FormatTreeJSON writes the tree as indented JSON.
func FormatTreeJSON(w io.Writer, root *TreeNode) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(root)
}
