package expand

import (
	"fmt"
	"strings"
)

// StorageBackend is where a stored property keeps its value.
type StorageBackend uint8

const (
	BackendCredential StorageBackend = iota
	BackendMemory
	BackendDefaults
)

func (b StorageBackend) String() string {
	switch b {
	case BackendMemory:
		return "memory"
	case BackendDefaults:
		return "defaults"
	case BackendCredential:
		return "credential"
	}
	return fmt.Sprintf("backend(%d)", uint8(b))
}

// ParseBackend resolves an enum member name. Aliases: keychain → credential,
// persistent → defaults.
func ParseBackend(name string) (StorageBackend, bool) {
	switch name {
	case "memory":
		return BackendMemory, true
	case "keychain", "credential":
		return BackendCredential, true
	case "defaults", "persistent":
		return BackendDefaults, true
	}
	return 0, false
}

// Config names everything the passes look for and everything they emit.
type Config struct {
	TypeAttribute     string // Preferences
	PropertyAttribute string // Stored
	Marker            string // PreferencesGenerated
	BackendEnum       string // Storage, the qualifier accepted in `in: Storage.memory`

	RegistrarField     string
	RegistrarType      string
	ObservableProtocol string
	HandleField        string
	HandleType         string
	CredentialStore    string

	Placeholder   string
	Fallback      StorageBackend
	AccessKeyword string
}

// DefaultConfig returns the built-in naming.
func DefaultConfig() Config {
	return Config{
		TypeAttribute:      "Preferences",
		PropertyAttribute:  "Stored",
		Marker:             "PreferencesGenerated",
		BackendEnum:        "Storage",
		RegistrarField:     "_$observationRegistrar",
		RegistrarType:      "Observation.ObservationRegistrar",
		ObservableProtocol: "Observation.Observable",
		HandleField:        "_defaults",
		HandleType:         "UserDefaults",
		CredentialStore:    "CredentialStore",
		Placeholder:        "<#initializer#>",
		Fallback:           BackendCredential,
		AccessKeyword:      "private",
	}
}

// Validate reports the first unusable name.
func (c Config) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"type attribute", c.TypeAttribute},
		{"property attribute", c.PropertyAttribute},
		{"marker", c.Marker},
		{"backend enum", c.BackendEnum},
		{"registrar field", c.RegistrarField},
		{"registrar type", c.RegistrarType},
		{"observable protocol", c.ObservableProtocol},
		{"handle field", c.HandleField},
		{"handle type", c.HandleType},
		{"credential store", c.CredentialStore},
		{"access keyword", c.AccessKeyword},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s must not be empty", f.name)
		}
		if strings.ContainsAny(f.value, " \t\r\n{}()") {
			return fmt.Errorf("%s %q is not an identifier", f.name, f.value)
		}
	}
	if !strings.HasPrefix(c.Placeholder, "<#") || !strings.HasSuffix(c.Placeholder, "#>") || len(c.Placeholder) < 5 {
		return fmt.Errorf("placeholder %q must look like <#name#>", c.Placeholder)
	}
	switch c.AccessKeyword {
	case "private", "fileprivate", "internal":
	default:
		return fmt.Errorf("access keyword %q must be private, fileprivate or internal", c.AccessKeyword)
	}
	if c.Fallback > BackendDefaults {
		return fmt.Errorf("unknown fallback backend %d", c.Fallback)
	}
	return nil
}
