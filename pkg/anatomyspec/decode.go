package anatomyspec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/snappy"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// CompressedSuffix marks a snappy-compressed document.
const CompressedSuffix = ".sz"

// Extensions lists the file extensions tried when looking up a document, in
// order of preference.
var Extensions = []string{
	".json", ".yaml", ".yml",
	".json" + CompressedSuffix, ".yaml" + CompressedSuffix, ".yml" + CompressedSuffix,
}

// DetectFormat derives the format from a file name and reports whether the
// file is snappy-compressed.
func DetectFormat(name string) (Format, bool, error) {
	compressed := strings.HasSuffix(name, CompressedSuffix)
	name = strings.TrimSuffix(name, CompressedSuffix)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	default:
		return "", compressed, fmt.Errorf("unrecognised document extension in %q", name)
	}
}

// Pack snappy-compresses a document body.
func Pack(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// Unpack reverses Pack.
func Unpack(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decode: %w", err)
	}
	return out, nil
}

// ParseFile reads and parses a document. The format follows the file name.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseNamed(filepath.Base(path), data)
}

// ParseNamed parses data whose format and compression follow name.
func ParseNamed(name string, data []byte) (*Document, error) {
	format, compressed, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if compressed {
		if data, err = Unpack(data); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return doc, nil
}

// Parse decodes a document. Two layouts are accepted:
//
//	{"template": ..., "network": ..., "subsystems": {"arterial": [...], ...}}
//
// and the bare form where every top-level key other than template, network
// and description names a subsystem. A subsystem holds a list of roots or a
// single root object. Declarations may spell their bridges "bridges" or
// "bridge".
func Parse(data []byte, format Format) (*Document, error) {
	var fields map[string]rawValue

	switch format {
	case FormatJSON:
		var top map[string]json.RawMessage
		if err := json.Unmarshal(data, &top); err != nil {
			return nil, malformed("decode json: %v", err)
		}
		fields = make(map[string]rawValue, len(top))
		for k, v := range top {
			fields[k] = jsonValue(v)
		}
	case FormatYAML:
		var top map[string]yaml.Node
		if err := yaml.Unmarshal(data, &top); err != nil {
			return nil, malformed("decode yaml: %v", err)
		}
		fields = make(map[string]rawValue, len(top))
		for k, v := range top {
			fields[k] = yamlValue{node: v}
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	return assemble(fields)
}

func assemble(fields map[string]rawValue) (*Document, error) {
	doc := &Document{Subsystems: make(map[string][]network.Declaration)}

	meta := map[string]*string{
		"template":    &doc.Template,
		"network":     &doc.Network,
		"description": &doc.Description,
	}
	for key, dst := range meta {
		if v, ok := fields[key]; ok {
			if err := v.decode(dst); err != nil {
				return nil, malformed("%s: %v", key, err)
			}
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if _, isMeta := meta[k]; !isMeta {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if v, ok := fields["subsystems"]; ok {
		if len(keys) > 1 {
			return nil, malformed("unexpected top-level keys beside subsystems: %v", keys)
		}
		var subsystems map[string]rootList
		if err := v.decode(&subsystems); err != nil {
			return nil, malformed("subsystems: %v", err)
		}
		for name, roots := range subsystems {
			doc.Subsystems[name] = roots.declarations()
		}
		return doc, nil
	}

	for _, name := range keys {
		var roots rootList
		if err := fields[name].decode(&roots); err != nil {
			return nil, malformed("%s: %v", name, err)
		}
		doc.Subsystems[name] = roots.declarations()
	}
	return doc, nil
}

func malformed(format string, args ...any) error {
	return network.NewError("Parse").Detail(format, args...).Cause(network.ErrMalformedSpec).Err()
}

// rawValue defers decoding of a top-level field to its source encoding
type rawValue interface {
	decode(v any) error
}

type jsonValue json.RawMessage

func (j jsonValue) decode(v any) error {
	return json.Unmarshal(j, v)
}

type yamlValue struct {
	node yaml.Node
}

func (y yamlValue) decode(v any) error {
	return y.node.Decode(v)
}

// rawDeclaration accepts both bridge spellings
type rawDeclaration struct {
	ID      string           `json:"id" yaml:"id"`
	Regions []string         `json:"regions" yaml:"regions"`
	Links   []rawDeclaration `json:"links" yaml:"links"`
	Bridges []string         `json:"bridges" yaml:"bridges"`
	Bridge  []string         `json:"bridge" yaml:"bridge"`
}

func (r rawDeclaration) declaration() network.Declaration {
	d := network.Declaration{
		ID:      r.ID,
		Regions: r.Regions,
	}
	if n := len(r.Bridges) + len(r.Bridge); n > 0 {
		d.Bridges = make([]string, 0, n)
		d.Bridges = append(d.Bridges, r.Bridges...)
		d.Bridges = append(d.Bridges, r.Bridge...)
	}
	for _, link := range r.Links {
		d.Links = append(d.Links, link.declaration())
	}
	return d
}

// rootList is a subsystem's roots: a list, or a single root object.
type rootList []rawDeclaration

func (r *rootList) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var one rawDeclaration
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*r = rootList{one}
		return nil
	}
	var many []rawDeclaration
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*r = many
	return nil
}

func (r *rootList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var one rawDeclaration
		if err := node.Decode(&one); err != nil {
			return err
		}
		*r = rootList{one}
		return nil
	}
	var many []rawDeclaration
	if err := node.Decode(&many); err != nil {
		return err
	}
	*r = many
	return nil
}

func (r rootList) declarations() []network.Declaration {
	decls := make([]network.Declaration, 0, len(r))
	for _, raw := range r {
		decls = append(decls, raw.declaration())
	}
	return decls
}

// Marshal encodes a document in the given format.
func Marshal(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
