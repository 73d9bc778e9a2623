package document

import (
	"strings"
	"testing"

	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
)

// TestDetectFormat tests the brace sniffing rule
func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Format
	}{
		{name: "json object", text: `{"a": 1}`, want: FormatJSON},
		{name: "json with whitespace", text: "\n  { \"a\": 1 }\n\t", want: FormatJSON},
		{name: "yaml mapping", text: "a: 1", want: FormatYAML},
		{name: "yaml flow ending elsewhere", text: "{a: 1}\n# trailing", want: FormatYAML},
		{name: "json array is yaml", text: `[1, 2]`, want: FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.text); got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestParse tests parsing of both formats and failure cases
func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantFormat Format
		wantErr    bool
	}{
		{name: "yaml", text: "ruleengine:\n  groups: []\n", wantFormat: FormatYAML},
		{name: "json", text: `{"ruleengine": {"groups": []}}`, wantFormat: FormatJSON},
		{name: "json with tabs", text: "{\n\t\"ruleengine\": {\n\t\t\"groups\": []\n\t}\n}", wantFormat: FormatJSON},
		{name: "empty", text: "   \n", wantFormat: FormatYAML, wantErr: true},
		{name: "comment only", text: "# nothing here\n", wantFormat: FormatYAML, wantErr: true},
		{name: "bad yaml", text: "a: [1, 2\nb: c", wantFormat: FormatYAML, wantErr: true},
		{name: "bad json", text: `{"a": 1,}`, wantFormat: FormatJSON, wantErr: true},
		{name: "yaml flow inside braces is not json", text: `{a: 1}`, wantFormat: FormatJSON, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, format, err := Parse("test.yaml", tt.text)
			if format != tt.wantFormat {
				t.Errorf("Parse() format = %q, want %q", format, tt.wantFormat)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !rglErrors.IsConfigurationError(err) {
					t.Errorf("Parse() error type = %T, want ConfigurationError", err)
				}
				return
			}
			groups, ok := doc.Lookup("ruleengine.groups")
			if !ok || !groups.IsSequence() {
				t.Errorf("Lookup(ruleengine.groups) = %v, %v, want sequence", groups, ok)
			}
		})
	}
}

// TestNode_Accessors tests attribute access and locations
func TestNode_Accessors(t *testing.T) {
	text := `group:
  name: orders
  enable: false
  count: 3
  empty:
  base: &base
    x: 1
  alias: *base
  items:
    - a
    - b
`
	doc, _, err := Parse("doc.yaml", text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	group, ok := doc.Get("group")
	if !ok {
		t.Fatal("Get(group) not found")
	}

	if name, ok := group.String("name"); !ok || name != "orders" {
		t.Errorf("String(name) = %q, %v", name, ok)
	}
	if count, ok := group.String("count"); !ok || count != "3" {
		t.Errorf("String(count) = %q, %v", count, ok)
	}
	if enable, ok := group.Bool("enable"); !ok || enable {
		t.Errorf("Bool(enable) = %v, %v, want false, true", enable, ok)
	}
	if _, ok := group.Bool("name"); ok {
		t.Error("Bool(name) ok = true, want false for non-boolean")
	}
	if _, ok := group.Bool("missing"); ok {
		t.Error("Bool(missing) ok = true, want false")
	}
	if _, ok := group.String("empty"); ok {
		t.Error("String(empty) ok = true, want false for null")
	}
	if items := group.List("items"); len(items) != 2 || items[1].Text() != "b" {
		t.Errorf("List(items) = %v", items)
	}
	if x, ok := doc.Lookup("group.alias.x"); !ok || x.Text() != "1" {
		t.Errorf("Lookup through alias = %v, %v", x, ok)
	}

	name, _ := group.Get("name")
	loc := name.Location()
	if loc.File != "doc.yaml" || loc.Line != 2 || loc.Column != 9 {
		t.Errorf("Location() = %v, want doc.yaml:2:9", loc)
	}
}

// TestFromValue tests building a document from Go values
func TestFromValue(t *testing.T) {
	doc, err := FromValue("remote", map[string]any{
		"ruleengine": map[string]any{
			"groups": []any{map[string]any{"name": "g"}},
		},
	})
	if err != nil {
		t.Fatalf("FromValue() error = %v", err)
	}
	groups, ok := doc.Lookup("ruleengine.groups")
	if !ok || len(groups.Items()) != 1 {
		t.Fatalf("Lookup(ruleengine.groups) = %v, %v", groups, ok)
	}
	if name, _ := groups.Items()[0].String("name"); name != "g" {
		t.Errorf("group name = %q, want g", name)
	}
}

// TestValidateSchema tests type checking of documents
func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantErr  bool
		wantPath string
	}{
		{
			name: "valid",
			text: `ruleengine:
  groups:
    - name: g
      project: p
      rules:
        - name: r
          when:
            - operation: cel
              target: "facts.x > 1"
          then:
            - type: none
`,
		},
		{name: "no ruleengine key", text: "other: 1\n"},
		{name: "scalar root", text: "just text\n"},
		{name: "groups not a list", text: "ruleengine:\n  groups: nope\n", wantErr: true, wantPath: "/ruleengine/groups"},
		{
			name:     "group not an object",
			text:     "ruleengine:\n  groups:\n    - 5\n",
			wantErr:  true,
			wantPath: "/ruleengine/groups/0",
		},
		{
			name: "group contents left to the group check",
			text: "ruleengine:\n  groups:\n    - name: g\n      enable: maybe\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _, err := Parse("schema.yaml", tt.text)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			err = ValidateSchema(doc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSchema() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			cfgErr, ok := rglErrors.AsConfigurationError(err)
			if !ok {
				t.Fatalf("ValidateSchema() error type = %T, want ConfigurationError", err)
			}
			if cfgErr.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", cfgErr.Path, tt.wantPath)
			}
			if !cfgErr.Location.IsValid() {
				t.Errorf("Location = %v, want a source position", cfgErr.Location)
			}
			if !strings.Contains(err.Error(), "schema") {
				t.Errorf("Error() = %q, want mention of schema", err.Error())
			}
		})
	}
}

// TestValidateGroupSchema tests type checking of single rule group nodes
func TestValidateGroupSchema(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantErr   bool
		wantPath  string
		wantGroup string
	}{
		{name: "valid", text: "name: g\nproject: p\nrules:\n  - name: r\n    when:\n      - operation: always\n"},
		{name: "yaml boolean words", text: "name: g\nenable: yes\nmatchAll: Off\nrules:\n  - enable: n\n"},
		{name: "null enable", text: "name: g\nenable:\n"},
		{name: "numeric params keys", text: "rules:\n  - then:\n      - type: none\n        params:\n          1: a\n          true: b\n"},
		{
			name: "numeric target allowed",
			text: "rules:\n  - when:\n      - source: a\n        operation: gt\n        target: 100\n",
		},
		{
			name:      "enable not a boolean word",
			text:      "name: g\nenable: maybe\n",
			wantErr:   true,
			wantPath:  "/enable",
			wantGroup: "g",
		},
		{
			name:     "nested subs type",
			text:     "rules:\n  - when:\n      - subs: 5\n",
			wantErr:  true,
			wantPath: "/rules/0/when/0/subs",
		},
		{
			name:      "name not a scalar",
			text:      "name: [a, b]\n",
			wantErr:   true,
			wantPath:  "/name",
			wantGroup: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group, _, err := Parse("group.yaml", tt.text)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			err = ValidateGroupSchema(group)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateGroupSchema() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			cfgErr, ok := rglErrors.AsConfigurationError(err)
			if !ok {
				t.Fatalf("ValidateGroupSchema() error type = %T, want ConfigurationError", err)
			}
			if cfgErr.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", cfgErr.Path, tt.wantPath)
			}
			if cfgErr.Group != tt.wantGroup {
				t.Errorf("Group = %q, want %q", cfgErr.Group, tt.wantGroup)
			}
			if !cfgErr.Location.IsValid() {
				t.Errorf("Location = %v, want a source position", cfgErr.Location)
			}
		})
	}
}
