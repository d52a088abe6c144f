package diagfmt

import (
	"encoding/json"
	"io"
	"path/filepath"

	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	ShortDescription     sarifMessage    `json:"shortDescription"`
	DefaultConfiguration sarifRuleConfig `json:"defaultConfiguration"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	RuleIndex        int             `json:"ruleIndex"`
	Level            string          `json:"level"`
	Message          sarifMessage    `json:"message"`
	Locations        []sarifLocation `json:"locations,omitempty"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
	Fixes            []sarifFix      `json:"fixes,omitempty"`
}

type sarifLocation struct {
	ID               int                   `json:"id,omitempty"`
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	Message          *sarifMessage         `json:"message,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine,omitempty"`
	StartColumn uint32 `json:"startColumn,omitempty"`
	EndLine     uint32 `json:"endLine,omitempty"`
	EndColumn   uint32 `json:"endColumn,omitempty"`
	CharOffset  uint32 `json:"charOffset"`
	CharLength  uint32 `json:"charLength"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion   `json:"deletedRegion"`
	InsertedContent *sarifMessage `json:"insertedContent,omitempty"`
}

// Sarif writes the bag as a single-run SARIF 2.1.0 log. Every registered
// code is declared as a rule; results reference them by index.
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	codes := diag.KnownCodes()
	rules := make([]sarifRule, 0, len(codes))
	index := make(map[diag.Code]int, len(codes))
	for _, c := range codes {
		if c == diag.UnknownCode {
			continue
		}
		index[c] = len(rules)
		rules = append(rules, sarifRule{
			ID:                   c.ID(),
			Name:                 c.Title(),
			ShortDescription:     sarifMessage{Text: c.Title()},
			DefaultConfiguration: sarifRuleConfig{Level: defaultLevel(c)},
		})
	}

	results := []sarifResult{}
	hasErrors := false
	if bag != nil {
		hasErrors = bag.HasErrors()
		for _, d := range bag.Items() {
			idx, ok := index[d.Code]
			if !ok {
				idx = -1
			}
			r := sarifResult{
				RuleID:    d.Code.ID(),
				RuleIndex: idx,
				Level:     sarifLevel(d.Severity),
				Message:   sarifMessage{Text: d.Message},
			}
			if loc, ok := sarifLocationOf(fs, d.Primary, meta.PathMode); ok {
				r.Locations = []sarifLocation{loc}
			}
			for i, n := range d.Notes {
				loc, ok := sarifLocationOf(fs, n.Span, meta.PathMode)
				if !ok {
					continue
				}
				loc.ID = i + 1
				loc.Message = &sarifMessage{Text: n.Msg}
				r.RelatedLocations = append(r.RelatedLocations, loc)
			}
			r.Fixes = sarifFixes(fs, d.Fixes, meta.PathMode)
			results = append(results, r)
		}
	}

	log := sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           meta.ToolName,
				Version:        meta.ToolVersion,
				InformationURI: meta.InformationURI,
				Rules:          rules,
			}},
			Invocations: []sarifInvocation{{
				Arguments:           meta.InvocationArgs,
				ExecutionSuccessful: !hasErrors,
			}},
			Results: results,
		}},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func sarifFixes(fs *source.FileSet, fixes []diag.Fix, mode PathMode) []sarifFix {
	ctx := diag.FixBuildContext{FileSet: fs}
	var out []sarifFix
	for _, f := range sortedFixes(fixes) {
		resolved, err := f.Resolve(ctx)
		if err != nil || len(resolved.Edits) == 0 {
			continue
		}
		byFile := map[source.FileID]int{}
		sf := sarifFix{Description: sarifMessage{Text: resolved.Title}}
		for _, e := range resolved.Edits {
			loc, ok := sarifLocationOf(fs, e.Span, mode)
			if !ok {
				continue
			}
			rep := sarifReplacement{DeletedRegion: loc.PhysicalLocation.Region}
			if e.NewText != "" {
				rep.InsertedContent = &sarifMessage{Text: e.NewText}
			}
			i, seen := byFile[e.Span.File]
			if !seen {
				i = len(sf.ArtifactChanges)
				byFile[e.Span.File] = i
				sf.ArtifactChanges = append(sf.ArtifactChanges, sarifArtifactChange{
					ArtifactLocation: loc.PhysicalLocation.ArtifactLocation,
				})
			}
			sf.ArtifactChanges[i].Replacements = append(sf.ArtifactChanges[i].Replacements, rep)
		}
		if len(sf.ArtifactChanges) > 0 {
			out = append(out, sf)
		}
	}
	return out
}

func sarifLocationOf(fs *source.FileSet, span source.Span, mode PathMode) (sarifLocation, bool) {
	if !resolvable(fs, span) {
		return sarifLocation{}, false
	}
	start, end := fs.Resolve(span)
	return sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: filepath.ToSlash(displayPath(fs, span.File, mode))},
			Region: sarifRegion{
				StartLine:   start.Line,
				StartColumn: start.Col,
				EndLine:     end.Line,
				EndColumn:   end.Col,
				CharOffset:  span.Start,
				CharLength:  span.Len(),
			},
		},
	}, true
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}

func defaultLevel(c diag.Code) string {
	switch c {
	case diag.ExpUnknownStorageBackend, diag.ExpMissingTypeAnnotation, diag.IOCacheError, diag.ProjConfigUnknown:
		return "warning"
	case diag.LexInfo, diag.SynInfo, diag.ExpInfo, diag.IOInfo, diag.ProjInfo:
		return "note"
	}
	return "error"
}
