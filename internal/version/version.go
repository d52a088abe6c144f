package version

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
)

// Version information for the prefmacro CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Info is the machine-readable form printed by `version --format json`.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Current collects the version variables. A missing commit falls back to
// the VCS stamp embedded by the go tool.
func Current() Info {
	info := Info{
		Version:    Version,
		GitCommit:  GitCommit,
		GitMessage: GitMessage,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.GitCommit == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					info.GitCommit = s.Value
				case "vcs.time":
					if info.BuildDate == "" {
						info.BuildDate = s.Value
					}
				}
			}
		}
	}
	return info
}

// Colorize paints major.minor.patch; anything after the patch is left as is.
func Colorize(v string, enabled bool) string {
	for _, c := range []*color.Color{versionMajorColor, versionMinorColor, versionPatchColor} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return v
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2]) + suffix
}

// WritePretty prints the human-readable version block.
func WritePretty(w io.Writer, info Info, useColor bool) error {
	if _, err := fmt.Fprintf(w, "prefmacro %s\n", Colorize(info.Version, useColor)); err != nil {
		return err
	}
	if info.GitCommit != "" {
		commit := info.GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		fmt.Fprintf(w, "  commit: %s", commit)
		if info.GitMessage != "" {
			fmt.Fprintf(w, " (%s)", info.GitMessage)
		}
		fmt.Fprintln(w)
	}
	if info.BuildDate != "" {
		fmt.Fprintf(w, "  built:  %s\n", info.BuildDate)
	}
	_, err := fmt.Fprintf(w, "  go:     %s %s\n", info.GoVersion, info.Platform)
	return err
}

// WriteJSON prints info as indented JSON.
func WriteJSON(w io.Writer, info Info) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
