package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/rulec/pkg/rgl/ast"
	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
)

// Format is the structured-text format of an input document.
type Format string

const (
	// FormatJSON is the brace-delimited format.
	FormatJSON Format = "json"

	// FormatYAML is the indentation-delimited format.
	FormatYAML Format = "yaml"
)

// DetectFormat sniffs the format of text: trimmed text that starts with "{"
// and ends with "}" is JSON, anything else is YAML.
func DetectFormat(text string) Format {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return FormatJSON
	}
	return FormatYAML
}

// Node is a generic, attribute-addressable document node. It keeps the
// source position of every value for error reporting.
type Node struct {
	n    *yaml.Node
	file string
}

// Parse parses text into a document. name is used in locations and may be
// empty. Empty text and syntax errors yield a ConfigurationError.
func Parse(name, text string) (*Node, Format, error) {
	format := DetectFormat(text)
	if strings.TrimSpace(text) == "" {
		return nil, format, rglErrors.New("document is empty").
			WithLocation(ast.Location{File: name})
	}

	var root *yaml.Node
	var err error
	switch format {
	case FormatJSON:
		root, err = parseJSON(text)
	default:
		root, err = parseYAML(text)
	}
	if err != nil {
		return nil, format, rglErrors.Wrap(err, "%s document cannot be parsed", format).
			WithLocation(ast.Location{File: name})
	}
	if root == nil {
		return nil, format, rglErrors.New("document is empty").
			WithLocation(ast.Location{File: name})
	}

	return &Node{n: root, file: name}, format, nil
}

func parseYAML(text string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	return documentRoot(&doc), nil
}

// parseJSON rejects anything that is not strict JSON, then reads it through
// the YAML parser so positions are kept. Input the YAML parser cannot read
// (for example tab indentation) is decoded as JSON and re-encoded as a node
// without positions.
func parseJSON(text string) (*yaml.Node, error) {
	if !json.Valid([]byte(text)) {
		var v any
		err := json.Unmarshal([]byte(text), &v)
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if root, err := parseYAML(text); err == nil && root != nil {
		return root, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	var node yaml.Node
	if err := node.Encode(normalizeNumbers(v)); err != nil {
		return nil, err
	}
	return &node, nil
}

// normalizeNumbers converts json.Number values into int64 or float64.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	default:
		return v
	}
}

// documentRoot unwraps the document node. It returns nil for documents
// without content.
func documentRoot(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		return n.Content[0]
	}
	if n.Kind == 0 {
		return nil
	}
	return n
}

// FromValue builds a document from a Go value (maps, slices, scalars, or
// structs with yaml tags). The nodes carry no source positions.
func FromValue(name string, v any) (*Node, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, rglErrors.Wrap(err, "value cannot be converted to a document")
	}
	return &Node{n: &node, file: name}, nil
}

func (d *Node) wrap(n *yaml.Node) *Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return &Node{n: n, file: d.file}
}

// Name returns the document name given to Parse.
func (d *Node) Name() string {
	return d.file
}

// IsMapping returns true for key/value nodes.
func (d *Node) IsMapping() bool {
	return d.n.Kind == yaml.MappingNode
}

// IsSequence returns true for list nodes.
func (d *Node) IsSequence() bool {
	return d.n.Kind == yaml.SequenceNode
}

// IsScalar returns true for non-null scalar nodes.
func (d *Node) IsScalar() bool {
	return d.n.Kind == yaml.ScalarNode && !d.IsNull()
}

// IsNull returns true for explicit nulls ("null", "~" or an empty value).
func (d *Node) IsNull() bool {
	return d.n.Kind == yaml.ScalarNode && d.n.Tag == "!!null"
}

// Location returns the source position of the node.
func (d *Node) Location() ast.Location {
	return ast.Location{File: d.file, Line: d.n.Line, Column: d.n.Column}
}

// Get returns the value of key in a mapping node. It reports false when
// the node is not a mapping or the key is absent.
func (d *Node) Get(key string) (*Node, bool) {
	if d.n.Kind != yaml.MappingNode {
		return nil, false
	}
	for i := 0; i+1 < len(d.n.Content); i += 2 {
		if d.n.Content[i].Value == key {
			return d.wrap(d.n.Content[i+1]), true
		}
	}
	return nil, false
}

// Lookup follows a dotted key path such as "ruleengine.groups".
func (d *Node) Lookup(path string) (*Node, bool) {
	current := d
	for _, key := range strings.Split(path, ".") {
		next, ok := current.Get(key)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Items returns the elements of a sequence node, or nil for other kinds.
func (d *Node) Items() []*Node {
	if d.n.Kind != yaml.SequenceNode {
		return nil
	}
	items := make([]*Node, 0, len(d.n.Content))
	for _, c := range d.n.Content {
		items = append(items, d.wrap(c))
	}
	return items
}

// Text returns the scalar text of the node, or "" for nulls and
// non-scalar nodes.
func (d *Node) Text() string {
	if !d.IsScalar() {
		return ""
	}
	return d.n.Value
}

// String returns the scalar text of key and whether it is present.
func (d *Node) String(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok || !v.IsScalar() {
		return "", false
	}
	return v.n.Value, true
}

// Bool returns the boolean value of key. It reports false when the key is
// absent or does not hold a boolean.
func (d *Node) Bool(key string) (bool, bool) {
	v, ok := d.Get(key)
	if !ok || !v.IsScalar() {
		return false, false
	}
	var b bool
	if err := v.n.Decode(&b); err != nil {
		return false, false
	}
	return b, true
}

// List returns the items of the sequence at key.
func (d *Node) List(key string) []*Node {
	v, ok := d.Get(key)
	if !ok {
		return nil
	}
	return v.Items()
}

// Decode decodes the node into v.
func (d *Node) Decode(v any) error {
	return d.n.Decode(v)
}

// Value decodes the node into plain Go values.
func (d *Node) Value() (any, error) {
	var v any
	if err := d.n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// at walks a JSON-pointer-like path of keys and indexes.
func (d *Node) at(segments []string) *Node {
	current := d
	for _, seg := range segments {
		switch current.n.Kind {
		case yaml.MappingNode:
			next, ok := current.Get(seg)
			if !ok {
				return current
			}
			current = next
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(current.n.Content) {
				return current
			}
			current = current.wrap(current.n.Content[idx])
		default:
			return current
		}
	}
	return current
}
