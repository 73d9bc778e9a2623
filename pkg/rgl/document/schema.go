package document

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
)

//go:embed schemas/rulegroups.json
var schemaFS embed.FS

const schemaResource = "rulegroups.json"

// groupSchemaResource addresses the definition each rule group is checked against.
const groupSchemaResource = schemaResource + "#/$defs/group"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	groupSchema    *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, *jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		data, err := schemaFS.ReadFile("schemas/" + schemaResource)
		if err != nil {
			schemaErr = fmt.Errorf("read embedded schema: %w", err)
			return
		}

		var schemaDoc any
		if err := json.Unmarshal(data, &schemaDoc); err != nil {
			schemaErr = fmt.Errorf("parse embedded schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaResource, schemaDoc); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaResource)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
			return
		}
		groupSchema, schemaErr = c.Compile(groupSchemaResource)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile group schema: %w", schemaErr)
		}
	})
	return compiledSchema, groupSchema, schemaErr
}

// SchemaError is a single schema violation.
type SchemaError struct {
	Path    string // JSON pointer of the offending value
	Message string
}

func (e SchemaError) String() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidateSchema checks the shape of a rule engine document against the
// embedded JSON schema: the root and ruleengine must be objects and
// ruleengine.groups a list of objects. Group contents are checked separately
// by ValidateGroupSchema so that one malformed group does not reject the
// others. The first violation is returned as a ConfigurationError located at
// the offending node.
func ValidateSchema(doc *Node) error {
	schema, _, err := loadSchema()
	if err != nil {
		return rglErrors.Wrap(err, "document schema is unavailable")
	}
	err = validate(schema, doc)
	if err == nil {
		return nil
	}
	return asSchemaError(err, doc, "document")
}

// ValidateGroupSchema checks the value types of a single rule group node.
// Required fields are left to the validator. The error names the group when
// the node carries a name.
func ValidateGroupSchema(group *Node) error {
	_, schema, err := loadSchema()
	if err != nil {
		return rglErrors.Wrap(err, "document schema is unavailable")
	}
	err = validate(schema, group)
	if err == nil {
		return nil
	}
	cfgErr := asSchemaError(err, group, "rule group")
	if name, ok := group.String("name"); ok && name != "" {
		cfgErr = cfgErr.WithGroup(name)
	}
	return cfgErr
}

// notJSON marks a node that could not be converted for validation.
type notJSON struct{ err error }

func (e notJSON) Error() string { return e.err.Error() }

func validate(schema *jsonschema.Schema, n *Node) error {
	value, err := jsonValue(n)
	if err != nil {
		return notJSON{err}
	}
	return schema.Validate(value)
}

func asSchemaError(err error, n *Node, what string) *rglErrors.ConfigurationError {
	if conv, ok := err.(notJSON); ok {
		return rglErrors.Wrap(conv.err, "%s is not representable as JSON", what).
			WithLocation(n.Location())
	}

	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return rglErrors.Wrap(err, "%s does not match the rule engine schema", what).
			WithLocation(n.Location())
	}

	violations := collectErrors(validationErr)
	if len(violations) == 0 {
		return rglErrors.New("%s does not match the rule engine schema: %s", what, validationErr.Error()).
			WithLocation(n.Location())
	}

	first := violations[0]
	segments := strings.Split(strings.TrimPrefix(first.Path, "/"), "/")
	if first.Path == "" {
		segments = nil
	}
	return rglErrors.New("%s does not match the rule engine schema: %s", what, first.String()).
		WithPath(first.Path).
		WithLocation(n.at(segments).Location())
}

// jsonValue converts the node into the value shapes produced by encoding/json.
// Mapping keys that are not strings, such as numeric params keys, are
// rendered as strings.
func jsonValue(n *Node) (any, error) {
	v, err := n.Value()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(stringKeys(v))
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = stringKeys(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = stringKeys(item)
		}
		return t
	default:
		return v
	}
}

// collectErrors recursively collects the leaf violations of a ValidationError.
func collectErrors(ve *jsonschema.ValidationError) []SchemaError {
	var errs []SchemaError

	instancePath := "/" + strings.Join(ve.InstanceLocation, "/")
	if len(ve.InstanceLocation) == 0 {
		instancePath = ""
	}

	if len(ve.Causes) == 0 {
		if msg := ve.Error(); msg != "" {
			errs = append(errs, SchemaError{Path: instancePath, Message: msg})
		}
		return errs
	}

	for _, cause := range ve.Causes {
		errs = append(errs, collectErrors(cause)...)
	}
	return errs
}
