package rest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Endpoint describes one verb on a path.
type Endpoint struct {
	// PathParams lists the placeholder names the endpoint accepts. When empty
	// any placeholder is accepted.
	PathParams  []string `yaml:"pathParams,omitempty"`
	Input       string   `yaml:"input,omitempty"`
	Output      string   `yaml:"output,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// SchemaNode is one path segment of a schema. Verb keys hold endpoints and
// every other key is a child segment; a key may span several segments and
// may carry a leading "/".
type SchemaNode struct {
	Endpoints map[Verb]*Endpoint
	Children  map[string]*SchemaNode
}

// Schema declares which verbs a client may call on which paths.
type Schema struct {
	root *SchemaNode
}

// Route is one declared verb on one path.
type Route struct {
	Path     string
	Verb     Verb
	Endpoint Endpoint
}

func newSchemaNode() *SchemaNode {
	return &SchemaNode{
		Endpoints: make(map[Verb]*Endpoint),
		Children:  make(map[string]*SchemaNode),
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *SchemaNode) UnmarshalYAML(value *yaml.Node) error {
	if n.Endpoints == nil || n.Children == nil {
		*n = *newSchemaNode()
	}

	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		return nil
	}

	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: expected a mapping", ErrInvalidSchema, value.Line)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valueNode := value.Content[i], value.Content[i+1]
		key := keyNode.Value

		verb, err := ParseVerb(key)
		if err == nil {
			endpoint := &Endpoint{}

			if valueNode.Tag != "!!null" {
				err = valueNode.Decode(endpoint)
				if err != nil {
					return fmt.Errorf("%w: %s at line %d: %w", ErrInvalidSchema, key, keyNode.Line, err)
				}
			}

			n.Endpoints[verb] = endpoint

			continue
		}

		segments := splitSegments(key)
		if len(segments) == 0 {
			return fmt.Errorf("%w: empty path segment at line %d", ErrInvalidSchema, keyNode.Line)
		}

		child := newSchemaNode()

		if valueNode.Tag != "!!null" {
			err = valueNode.Decode(child)
			if err != nil {
				return err
			}
		}

		n.attach(segments, child)
	}

	return nil
}

// attach merges child into the tree at segments below n.
func (n *SchemaNode) attach(segments []string, child *SchemaNode) {
	current := n

	for _, segment := range segments[:len(segments)-1] {
		next, ok := current.Children[segment]
		if !ok {
			next = newSchemaNode()
			current.Children[segment] = next
		}

		current = next
	}

	last := segments[len(segments)-1]

	existing, ok := current.Children[last]
	if !ok {
		current.Children[last] = child

		return
	}

	existing.merge(child)
}

func (n *SchemaNode) merge(other *SchemaNode) {
	for verb, endpoint := range other.Endpoints {
		n.Endpoints[verb] = endpoint
	}

	for segment, child := range other.Children {
		existing, ok := n.Children[segment]
		if !ok {
			n.Children[segment] = child

			continue
		}

		existing.merge(child)
	}
}

// LoadSchema reads a YAML schema.
func LoadSchema(r io.Reader) (*Schema, error) {
	root := newSchemaNode()

	err := yaml.NewDecoder(r).Decode(root)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	return &Schema{root: root}, nil
}

// LoadSchemaFile reads a YAML schema from path.
func LoadSchemaFile(path string) (*Schema, error) {
	file, err := os.Open(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open schema: %w", err)
	}

	defer func() { _ = file.Close() }()

	return LoadSchema(file)
}

// Validate checks that verb is declared on path and that path only uses
// declared placeholders. Placeholder segments match any placeholder segment
// of the schema, preferring one with the same name.
func (s *Schema) Validate(verb Verb, path string) error {
	if s == nil {
		return nil
	}

	node := s.root

	for _, segment := range splitSegments(path) {
		next := node.child(segment)
		if next == nil {
			return &SchemaError{Verb: verb, Path: path, Err: ErrPathNotDeclared}
		}

		node = next
	}

	endpoint, ok := node.Endpoints[verb]
	if !ok {
		return &SchemaError{Verb: verb, Path: path, Err: ErrVerbNotDeclared}
	}

	if len(endpoint.PathParams) == 0 {
		return nil
	}

	for _, name := range Placeholders(path) {
		root, _, _ := strings.Cut(name, lookupSeparator)
		if !slices.Contains(endpoint.PathParams, root) {
			return &SchemaError{Verb: verb, Path: path, Err: fmt.Errorf("%w: %s", ErrUndeclaredParameter, root)}
		}
	}

	return nil
}

func (n *SchemaNode) child(segment string) *SchemaNode {
	if next, ok := n.Children[segment]; ok {
		return next
	}

	if !strings.HasPrefix(segment, placeholderMarker) {
		return nil
	}

	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		if strings.HasPrefix(name, placeholderMarker) {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return nil
	}

	sort.Strings(names)

	return n.Children[names[0]]
}

// Routes lists every declared route sorted by path, then verb.
func (s *Schema) Routes() []Route {
	if s == nil {
		return nil
	}

	var routes []Route

	s.root.walk(nil, func(segments []string, verb Verb, endpoint *Endpoint) {
		routes = append(routes, Route{
			Path:     pathSeparator + strings.Join(segments, pathSeparator),
			Verb:     verb,
			Endpoint: *endpoint,
		})
	})

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}

		return verbOrder(routes[i].Verb) < verbOrder(routes[j].Verb)
	})

	return routes
}

func (n *SchemaNode) walk(prefix []string, fn func([]string, Verb, *Endpoint)) {
	for verb, endpoint := range n.Endpoints {
		fn(prefix, verb, endpoint)
	}

	for segment, child := range n.Children {
		child.walk(append(slices.Clone(prefix), segment), fn)
	}
}

func verbOrder(verb Verb) int {
	return slices.Index(Verbs(), verb)
}

func splitSegments(path string) []string {
	trimmed := strings.Trim(path, pathSeparator)
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, pathSeparator)
}
