// Package config loads prefmacro.toml.
package config

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"prefmacro/internal/expand"
)

// FileName is the configuration file looked up next to the sources.
const FileName = "prefmacro.toml"

var (
	// ErrNotFound: no prefmacro.toml between the start directory and the root.
	ErrNotFound = errors.New(FileName + " not found")
	// ErrInvalid wraps validation failures.
	ErrInvalid = errors.New("invalid configuration")
)

// Digest - фиксированный 256-битный хеш конфигурации (ключ кеша раскрытий).
type Digest [32]byte

type attributesSection struct {
	Type        string `toml:"type"`
	Property    string `toml:"property"`
	Marker      string `toml:"marker"`
	BackendEnum string `toml:"backend_enum"`
}

type expansionSection struct {
	RegistrarField  string `toml:"registrar_field"`
	RegistrarType   string `toml:"registrar_type"`
	Protocol        string `toml:"protocol"`
	HandleField     string `toml:"handle_field"`
	HandleType      string `toml:"handle_type"`
	CredentialStore string `toml:"credential_store"`
	Placeholder     string `toml:"placeholder"`
	FallbackBackend string `toml:"fallback_backend"`
	Access          string `toml:"access"`
}

type diagnosticsSection struct {
	Max              int  `toml:"max"`
	WarningsAsErrors bool `toml:"warnings_as_errors"`
}

// document mirrors the file layout.
type document struct {
	Attributes  attributesSection  `toml:"attributes"`
	Expansion   expansionSection   `toml:"expansion"`
	Diagnostics diagnosticsSection `toml:"diagnostics"`
}

// Config is the resolved configuration.
type Config struct {
	// Path is the file it was read from; empty for built-in defaults.
	Path             string
	Expand           expand.Config
	MaxDiagnostics   int
	WarningsAsErrors bool
	// Unknown lists keys present in the file that nothing reads.
	Unknown []string
}

// DefaultMaxDiagnostics caps diagnostics per file unless configured.
const DefaultMaxDiagnostics = 200

// Default returns the built-in configuration.
func Default() Config {
	return Config{Expand: expand.DefaultConfig(), MaxDiagnostics: DefaultMaxDiagnostics}
}

func toDocument(c Config) document {
	e := c.Expand
	return document{
		Attributes: attributesSection{
			Type:        e.TypeAttribute,
			Property:    e.PropertyAttribute,
			Marker:      e.Marker,
			BackendEnum: e.BackendEnum,
		},
		Expansion: expansionSection{
			RegistrarField:  e.RegistrarField,
			RegistrarType:   e.RegistrarType,
			Protocol:        e.ObservableProtocol,
			HandleField:     e.HandleField,
			HandleType:      e.HandleType,
			CredentialStore: e.CredentialStore,
			Placeholder:     e.Placeholder,
			FallbackBackend: e.Fallback.String(),
			Access:          e.AccessKeyword,
		},
		Diagnostics: diagnosticsSection{
			Max:              c.MaxDiagnostics,
			WarningsAsErrors: c.WarningsAsErrors,
		},
	}
}

func fromDocument(doc document) (Config, error) {
	fallback, ok := expand.ParseBackend(strings.TrimSpace(doc.Expansion.FallbackBackend))
	if !ok {
		return Config{}, fmt.Errorf("%w: unknown fallback_backend %q", ErrInvalid, doc.Expansion.FallbackBackend)
	}
	if doc.Diagnostics.Max < 0 {
		return Config{}, fmt.Errorf("%w: diagnostics.max must not be negative", ErrInvalid)
	}
	cfg := Config{
		Expand: expand.Config{
			TypeAttribute:      strings.TrimSpace(doc.Attributes.Type),
			PropertyAttribute:  strings.TrimSpace(doc.Attributes.Property),
			Marker:             strings.TrimSpace(doc.Attributes.Marker),
			BackendEnum:        strings.TrimSpace(doc.Attributes.BackendEnum),
			RegistrarField:     strings.TrimSpace(doc.Expansion.RegistrarField),
			RegistrarType:      strings.TrimSpace(doc.Expansion.RegistrarType),
			ObservableProtocol: strings.TrimSpace(doc.Expansion.Protocol),
			HandleField:        strings.TrimSpace(doc.Expansion.HandleField),
			HandleType:         strings.TrimSpace(doc.Expansion.HandleType),
			CredentialStore:    strings.TrimSpace(doc.Expansion.CredentialStore),
			Placeholder:        strings.TrimSpace(doc.Expansion.Placeholder),
			Fallback:           fallback,
			AccessKeyword:      strings.TrimSpace(doc.Expansion.Access),
		},
		MaxDiagnostics:   doc.Diagnostics.Max,
		WarningsAsErrors: doc.Diagnostics.WarningsAsErrors,
	}
	if err := cfg.Expand.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// Load reads path on top of the defaults: keys missing from the file keep
// their built-in values.
func Load(path string) (Config, error) {
	doc := toDocument(Default())
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg, err := fromDocument(doc)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	for _, key := range meta.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, key.String())
	}
	return cfg, nil
}

// Find walks up from startDir to locate prefmacro.toml.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Discover loads explicit when set, otherwise the nearest prefmacro.toml
// above start, otherwise the defaults.
func Discover(start, explicit string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, err := Find(start)
	switch {
	case errors.Is(err, ErrNotFound):
		return Default(), nil
	case err != nil:
		return Config{}, err
	}
	return Load(path)
}

// Encode renders c in file form.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(toDocument(c)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hash identifies everything that influences generated output. Path and
// unknown keys do not participate.
func (c Config) Hash() Digest {
	data, err := c.Encode()
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", toDocument(c)))
	}
	return sha256.Sum256(data)
}

// WriteDefault creates dir/prefmacro.toml with the built-in values. An
// existing file is kept unless force is set.
func WriteDefault(dir string, force bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s: %w", path, os.ErrExist)
		}
	}
	data, err := Default().Encode()
	if err != nil {
		return "", err
	}
	header := "# prefmacro configuration. Every key is optional.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Combine строит ключ кеша: H( content || cfg || path ).
// path входит в ключ, потому что идентификаторы исправлений содержат путь файла.
func Combine(content [32]byte, cfg Digest, path string) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	_, _ = h.Write(cfg[:])
	_, _ = h.Write([]byte(path))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
