package parser

import (
	"os"

	"mercator-hq/rulec/pkg/rgl/ast"
	"mercator-hq/rulec/pkg/rgl/document"
	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
)

// GroupsPath is the key path holding the list of rule group nodes.
const GroupsPath = "ruleengine.groups"

// DefaultMaxDocumentSize is the default limit for rule documents (10MB).
const DefaultMaxDocumentSize = 10 * 1024 * 1024

// Parser turns rule engine documents into rule group entities.
type Parser struct {
	maxSize        int64 // Maximum document size in bytes
	validateSchema bool  // Type-check documents against the embedded schema
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxSize:        DefaultMaxDocumentSize,
		validateSchema: true,
	}
}

// WithMaxSize sets the maximum document size.
func (p *Parser) WithMaxSize(size int64) *Parser {
	if size > 0 {
		p.maxSize = size
	}
	return p
}

// WithSchemaValidation enables or disables the schema type check.
func (p *Parser) WithSchemaValidation(enabled bool) *Parser {
	p.validateSchema = enabled
	return p
}

// ReadFile reads a rule document from disk, enforcing the size limit.
func (p *Parser) ReadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", rglErrors.Wrap(err, "failed to access file").
			WithLocation(ast.Location{File: path})
	}
	if info.Size() > p.maxSize {
		return "", rglErrors.New("file size %d exceeds maximum %d bytes", info.Size(), p.maxSize).
			WithLocation(ast.Location{File: path})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", rglErrors.Wrap(err, "failed to read file").
			WithLocation(ast.Location{File: path})
	}
	return string(data), nil
}

// SchemaValidation reports whether documents and groups are type-checked.
func (p *Parser) SchemaValidation() bool {
	return p.validateSchema
}

// MaxSize returns the document size limit in bytes.
func (p *Parser) MaxSize() int64 {
	return p.maxSize
}

// CheckGroup type-checks a single rule group node when schema validation is
// enabled.
func (p *Parser) CheckGroup(node *document.Node) error {
	if !p.validateSchema {
		return nil
	}
	return document.ValidateGroupSchema(node)
}

// ParseDocument parses text into a document and type-checks its shape. The
// contents of each group are checked by CheckGroup.
func (p *Parser) ParseDocument(name, text string) (*document.Node, error) {
	if int64(len(text)) > p.maxSize {
		return nil, rglErrors.New("document size %d exceeds maximum %d bytes", len(text), p.maxSize).
			WithLocation(ast.Location{File: name})
	}

	doc, _, err := document.Parse(name, text)
	if err != nil {
		return nil, err
	}

	if p.validateSchema {
		if err := document.ValidateSchema(doc); err != nil {
			if cfgErr, ok := rglErrors.AsConfigurationError(err); ok {
				rglErrors.WithContext(cfgErr, text, 2)
			}
			return nil, err
		}
	}

	return doc, nil
}

// ParseGroups parses text and builds every rule group found under
// GroupsPath. A document without that path yields no groups and no error.
// When a group fails its type check, the groups built before it are returned
// with the error.
func (p *Parser) ParseGroups(name, text string) ([]*ast.RuleGroup, error) {
	doc, err := p.ParseDocument(name, text)
	if err != nil {
		return nil, err
	}

	nodes, _, err := GroupNodes(doc)
	if err != nil {
		return nil, err
	}

	groups := make([]*ast.RuleGroup, 0, len(nodes))
	for _, node := range nodes {
		if err := p.CheckGroup(node); err != nil {
			if cfgErr, ok := rglErrors.AsConfigurationError(err); ok {
				rglErrors.WithContext(cfgErr, text, 2)
			}
			return groups, err
		}
		groups = append(groups, Build(node))
	}
	return groups, nil
}

// ParseFile reads a rule document from disk and builds its rule groups.
func (p *Parser) ParseFile(path string) ([]*ast.RuleGroup, error) {
	text, err := p.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseGroups(path, text)
}

// GroupNodes returns the rule group nodes under GroupsPath. found is false
// when the path is absent. Content under an existing path that is not a list
// (or null) is a ConfigurationError.
func GroupNodes(doc *document.Node) (nodes []*document.Node, found bool, err error) {
	groups, ok := doc.Lookup(GroupsPath)
	if !ok {
		return nil, false, nil
	}
	if groups.IsNull() {
		return nil, true, nil
	}
	if !groups.IsSequence() {
		return nil, true, rglErrors.New("%s must be a list of rule groups", GroupsPath).
			WithLocation(groups.Location())
	}

	for _, item := range groups.Items() {
		if !item.IsMapping() {
			return nil, true, rglErrors.New("%s entries must be rule group objects", GroupsPath).
				WithLocation(item.Location())
		}
	}
	return groups.Items(), true, nil
}
