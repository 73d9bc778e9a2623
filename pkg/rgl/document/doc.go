// Package document parses rule engine documents into generic,
// attribute-addressable nodes.
//
// Both formats go through gopkg.in/yaml.v3 so every node keeps its line and
// column. Text that is brace-delimited after trimming is treated as JSON and
// must be strict JSON; everything else is YAML.
//
// ValidateSchema type-checks a document against an embedded JSON schema
// (github.com/santhosh-tekuri/jsonschema/v6). Presence of required fields is
// the validator's concern, not the schema's.
package document
