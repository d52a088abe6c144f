package expand

import (
	"fmt"
	"strings"
)

const conformanceTemplate = `@{{marker}}
extension {{type}}: {{protocol}} {
    internal nonisolated func access<Member>(keyPath: KeyPath<{{type}}, Member>) {
        {{registrar}}.access(self, keyPath: keyPath)
    }

    internal nonisolated func withMutation<Member, T>(
        keyPath: KeyPath<{{type}}, Member>,
        _ mutation: () throws -> T
    ) rethrows -> T {
        try {{registrar}}.withMutation(of: self, keyPath: keyPath, mutation)
    }
}`

// SynthesizeConformance returns the single extension that makes typeName
// observable through its registrar field. It has no diagnostics of its own.
func SynthesizeConformance(typeName string, cfg Config) Result {
	var res Result
	text := strings.NewReplacer(
		"{{marker}}", cfg.Marker,
		"{{type}}", typeName,
		"{{protocol}}", cfg.ObservableProtocol,
		"{{registrar}}", cfg.RegistrarField,
	).Replace(conformanceTemplate)
	ext, err := render(text)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, MaterializeFailed(nil, fmt.Errorf("conformance for %s: %w", typeName, err)))
		return res
	}
	res.Declarations = append(res.Declarations, ext)
	return res
}
