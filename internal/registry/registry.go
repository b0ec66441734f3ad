// Package registry provides the static command catalog for TexEdit.
// It is the single source of truth for which commands exist, how their
// arguments are shaped, and which of them depend on the remote backend.
// The catalog is loaded once from embedded YAML and immutable afterwards.
package registry

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"texedit/internal/data/embedded"
	"texedit/pkg/textypes"
)

// catalogEntry mirrors one command definition in the embedded YAML file.
type catalogEntry struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Usage          string   `yaml:"usage"`
	Argument       string   `yaml:"argument"`
	Values         []string `yaml:"values"`
	Aliases        []string `yaml:"aliases"`
	RequiresRemote bool     `yaml:"requires_remote"`
	RequiresInput  bool     `yaml:"requires_input"`
}

// catalogFile is the top-level structure of the embedded catalog.
type catalogFile struct {
	Commands []catalogEntry `yaml:"commands"`
	Starter  []string       `yaml:"starter"`
}

// Registry holds the parsed command catalog. All lookups are pure reads;
// the registry carries no mutable state after construction.
type Registry struct {
	order       []string
	descriptors map[string]textypes.CommandDescriptor
	aliases     map[string]string
	starter     []string
}

// New parses the embedded command catalog and builds the registry.
func New() (*Registry, error) {
	return parse(embedded.CommandCatalogData)
}

// MustNew is like New but panics on a malformed embedded catalog. The
// catalog ships inside the binary, so failure here is a build defect.
func MustNew() *Registry {
	r, err := New()
	if err != nil {
		panic(fmt.Sprintf("embedded command catalog is invalid: %v", err))
	}
	return r
}

func parse(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse command catalog: %w", err)
	}
	if len(file.Commands) == 0 {
		return nil, fmt.Errorf("command catalog contains no commands")
	}

	r := &Registry{
		descriptors: make(map[string]textypes.CommandDescriptor, len(file.Commands)),
		aliases:     make(map[string]string),
	}

	for _, entry := range file.Commands {
		name := strings.ToLower(strings.TrimSpace(entry.Name))
		if name == "" {
			return nil, fmt.Errorf("command catalog entry has an empty name")
		}
		if _, exists := r.descriptors[name]; exists {
			return nil, fmt.Errorf("command %s defined twice in catalog", name)
		}

		kind, err := argumentKind(entry.Argument)
		if err != nil {
			return nil, fmt.Errorf("command %s: %w", name, err)
		}
		if kind == textypes.ArgEnumerated && len(entry.Values) == 0 {
			return nil, fmt.Errorf("command %s: enumerated argument needs values", name)
		}

		r.descriptors[name] = textypes.CommandDescriptor{
			Name:           name,
			Description:    entry.Description,
			Usage:          entry.Usage,
			ArgumentKind:   kind,
			ArgumentValues: entry.Values,
			RequiresRemote: entry.RequiresRemote,
			RequiresInput:  entry.RequiresInput,
		}
		r.order = append(r.order, name)

		for _, alias := range entry.Aliases {
			r.aliases[strings.ToLower(alias)] = name
		}
	}

	for _, name := range file.Starter {
		name = strings.ToLower(name)
		if _, ok := r.descriptors[name]; !ok {
			return nil, fmt.Errorf("starter command %s is not in the catalog", name)
		}
		r.starter = append(r.starter, name)
	}

	return r, nil
}

func argumentKind(s string) (textypes.ArgumentKind, error) {
	switch s {
	case "", "none":
		return textypes.ArgNone, nil
	case "enumerated":
		return textypes.ArgEnumerated, nil
	case "percentage":
		return textypes.ArgPercentage, nil
	default:
		return textypes.ArgNone, fmt.Errorf("unknown argument kind %q", s)
	}
}

// AllCommands returns every registered command name in catalog order.
// The returned slice is a copy and can be safely modified.
func (r *Registry) AllCommands() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// StarterCommands returns the curated subset suggested for empty input,
// in catalog order.
func (r *Registry) StarterCommands() []string {
	out := make([]string, len(r.starter))
	copy(out, r.starter)
	return out
}

// Descriptor looks up a command by name. Lookup is case-insensitive and
// resolves aliases (e.g. "summarize" resolves to "summarise").
func (r *Registry) Descriptor(name string) (textypes.CommandDescriptor, bool) {
	desc, ok := r.descriptors[r.Resolve(name)]
	return desc, ok
}

// Resolve normalizes a command name to its canonical lowercase form,
// following aliases. Unknown names are returned lowercased unchanged.
func (r *Registry) Resolve(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := r.aliases[name]; ok {
		return canonical
	}
	return name
}

// IsRegistered reports whether name (or one of its aliases) is in the catalog.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.descriptors[r.Resolve(name)]
	return ok
}

// ArgumentValues returns the accepted literal values for a command's
// enumerated argument, or an empty slice for free-form or argument-less
// commands.
func (r *Registry) ArgumentValues(name string) []string {
	desc, ok := r.Descriptor(name)
	if !ok || desc.ArgumentKind != textypes.ArgEnumerated {
		return nil
	}
	out := make([]string, len(desc.ArgumentValues))
	copy(out, desc.ArgumentValues)
	return out
}

// Usage returns the usage string for a command, or empty if unregistered.
func (r *Registry) Usage(name string) string {
	desc, ok := r.Descriptor(name)
	if !ok {
		return ""
	}
	return desc.Usage
}
