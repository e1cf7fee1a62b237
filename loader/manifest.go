package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Declaration is one manifest entry: a signature for a method of a named
// class. Static declarations target class-level methods.
type Declaration struct {
	Class     string `json:"class" yaml:"class"`
	Method    string `json:"method" yaml:"method"`
	Static    bool   `json:"static,omitempty" yaml:"static,omitempty"`
	Signature string `json:"signature" yaml:"signature"`

	// Line is the 1-based manifest line of the entry, 0 when unknown
	Line int `json:"-" yaml:"-"`
}

// Target names the method the declaration applies to.
func (d Declaration) Target() string {
	if d.Static {
		return d.Class + "." + d.Method
	}
	return d.Class + "#" + d.Method
}

// Manifest is a parsed signature manifest.
type Manifest struct {
	Path         string
	Declarations []Declaration
}

// Location renders the manifest position of d for diagnostics.
func (m *Manifest) Location(d Declaration) string {
	path := m.Path
	if path == "" {
		path = "<manifest>"
	}
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d", path, d.Line)
	}
	return path
}

// LoadFile reads a manifest, decoding JSON for .json files and YAML
// otherwise.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(path, data)
	}
	return ParseYAML(path, data)
}

// ParseYAML decodes a YAML manifest.
func ParseYAML(path string, data []byte) (*Manifest, error) {
	var doc struct {
		Signatures []yaml.Node `yaml:"signatures"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	m := &Manifest{Path: path}
	for i := range doc.Signatures {
		node := &doc.Signatures[i]
		var d Declaration
		if err := node.Decode(&d); err != nil {
			return nil, fmt.Errorf("parsing manifest %s: entry %d: %w", path, i, err)
		}
		d.Line = node.Line
		m.Declarations = append(m.Declarations, d)
	}
	return m, nil
}

// ParseJSON decodes a JSON manifest.
func ParseJSON(path string, data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parsing manifest %s: invalid JSON", path)
	}
	sigs := gjson.GetBytes(data, "signatures")
	if sigs.Exists() && !sigs.IsArray() {
		return nil, fmt.Errorf("parsing manifest %s: signatures must be an array", path)
	}

	m := &Manifest{Path: path}
	var err error
	sigs.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			err = fmt.Errorf("parsing manifest %s: entry %d is not an object", path, len(m.Declarations))
			return false
		}
		static := value.Get("static")
		if static.Exists() && static.Type != gjson.True && static.Type != gjson.False {
			err = fmt.Errorf("parsing manifest %s: entry %d: static must be a boolean, got %s", path, len(m.Declarations), static.Raw)
			return false
		}
		m.Declarations = append(m.Declarations, Declaration{
			Class:     value.Get("class").String(),
			Method:    value.Get("method").String(),
			Static:    static.Bool(),
			Signature: value.Get("signature").String(),
			Line:      lineAt(data, value.Index),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// lineAt maps a gjson byte offset to a 1-based line, 0 when the offset is
// unknown.
func lineAt(data []byte, offset int) int {
	if offset <= 0 || offset >= len(data) {
		return 0
	}
	return bytes.Count(data[:offset], []byte{'\n'}) + 1
}
