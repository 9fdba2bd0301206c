package spindle

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Definition is the YAML shape accepted by FromYAML. Only initial data can
// be declared in YAML; evaluators and watchers are code and get registered
// on the runtime afterward.
type Definition struct {
	Data map[string]any `yaml:"data"`
}

// LoadData parses a YAML definition document and returns its initial data
// mapping.
func LoadData(r io.Reader) (map[string]any, error) {
	var def Definition
	if err := yaml.NewDecoder(r).Decode(&def); err != nil {
		return nil, fmt.Errorf("decoding store definition: %w", err)
	}
	return def.Data, nil
}

// FromYAML builds a runtime from a YAML definition document.
func FromYAML(r io.Reader) (*Runtime, error) {
	data, err := LoadData(r)
	if err != nil {
		return nil, err
	}
	return New(data), nil
}

// Snapshot returns a copy of every key currently holding a value, data and
// computed alike. Nil after Destroy.
func (rt *Runtime) Snapshot() map[string]any {
	if rt.store.data == nil {
		return nil
	}
	snap := make(map[string]any, len(rt.store.data))
	for k, v := range rt.store.data {
		snap[k] = v
	}
	return snap
}

// DumpYAML writes the current store as a YAML mapping with keys in lexical
// order, suitable for golden files and checksums.
func (rt *Runtime) DumpYAML(w io.Writer) error {
	snap := rt.Snapshot()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range names {
		value := &yaml.Node{}
		if err := value.Encode(snap[name]); err != nil {
			return fmt.Errorf("encoding %q: %w", name, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			value,
		)
	}
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return enc.Close()
}
