package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TableProfile describes a known pay scale and its import defaults.
// Zero-valued fields fall back to the package defaults.
type TableProfile struct {
	Name        string   // Stored table_name: "TV-L"
	Label       string   // Display name
	Aliases     []string // Alternative spellings accepted on import: "TVoED"
	GradeColumn string
	Delimiter   rune
	Region      string
	ValidFrom   string
	Encoding    string
}

var (
	registry   = make(map[string]TableProfile)
	aliases    = make(map[string]string)
	registryMu sync.RWMutex
)

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a table profile to the registry.
// Panics if a profile with the same name or alias is already registered.
func Register(p TableProfile) {
	registryMu.Lock()
	defer registryMu.Unlock()

	key := registryKey(p.Name)
	if key == "" {
		panic("table profile without name")
	}
	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("table already registered: %s", p.Name))
	}
	if _, exists := aliases[key]; exists {
		panic(fmt.Sprintf("table already registered: %s", p.Name))
	}
	for _, a := range p.Aliases {
		ak := registryKey(a)
		if _, exists := aliases[ak]; exists {
			panic(fmt.Sprintf("table alias already registered: %s", a))
		}
		if _, exists := registry[ak]; exists {
			panic(fmt.Sprintf("table alias already registered: %s", a))
		}
		aliases[ak] = key
	}

	registry[key] = p
}

// Get returns a table profile by name or alias, case-insensitively.
// Returns false if not found.
func Get(name string) (TableProfile, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	key := registryKey(name)
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	p, ok := registry[key]
	return p, ok
}

// All returns all registered profiles sorted by name.
func All() []TableProfile {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableProfile, 0, len(registry))
	for _, p := range registry {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// TableCount returns the number of registered profiles.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered profiles.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableProfile)
	aliases = make(map[string]string)
}

// ApplyProfile resolves opts.TableName against the registry and fills every
// unset option from the matching profile. The table name is replaced by the
// profile's canonical name. Unknown tables are returned unchanged.
func ApplyProfile(opts NormalizeOptions) NormalizeOptions {
	p, ok := Get(opts.TableName)
	if !ok {
		return opts
	}

	opts.TableName = p.Name
	if opts.GradeColumn == "" {
		opts.GradeColumn = p.GradeColumn
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = p.Delimiter
	}
	if opts.Region == "" {
		opts.Region = p.Region
	}
	if opts.ValidFrom == "" {
		opts.ValidFrom = p.ValidFrom
	}
	if opts.Encoding == "" {
		opts.Encoding = p.Encoding
	}
	return opts
}
