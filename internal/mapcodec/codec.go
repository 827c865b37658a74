// Package mapcodec converts maps to and from their persisted YAML form.
package mapcodec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the document version written by Serialize.
const FormatVersion = 1

// ErrFormat is returned when text cannot be decoded into a valid map.
var ErrFormat = errors.New("mapcodec: malformed map document")

// Text is a string field written as a double-quoted scalar, so control
// characters and edge whitespace read back unchanged.
type Text string

// MarshalYAML implements yaml.Marshaler.
func (t Text) MarshalYAML() (interface{}, error) {
	return quoted(string(t)), nil
}

// quoted builds a double-quoted string scalar. Text that is not valid UTF-8
// is left untagged and the encoder writes it as !!binary.
func quoted(s string) *yaml.Node {
	if !utf8.ValidString(s) {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: s}
}

// MapData represents the serialized map structure for persistence
type MapData struct {
	Version int         `yaml:"version"`
	Seed    Text        `yaml:"seed"`
	Layers  []LayerData `yaml:"layers"`
}

// LayerData represents a serialized layer
type LayerData struct {
	Index    int        `yaml:"index"`
	Boss     Text       `yaml:"boss"`
	Location Text       `yaml:"location"`
	Nodes    []NodeData `yaml:"nodes"`
}

// NodeData represents a serialized node. Property values keep their kind
// through YAML scalar tags.
type NodeData struct {
	ID         Text                 `yaml:"id"`
	Type       string               `yaml:"type"`
	Layer      int                  `yaml:"layer"`
	Path       int                  `yaml:"path"`
	Node       int                  `yaml:"node"`
	Properties map[string]yaml.Node `yaml:"properties"`
}

// Serialize converts a map to its YAML document.
func Serialize(m *mapgen.MysticalMap) ([]byte, error) {
	if m == nil {
		return nil, errors.New("serialize map: map is nil")
	}

	data := MapData{
		Version: FormatVersion,
		Seed:    Text(m.Seed),
		Layers:  make([]LayerData, 0, len(m.Layers)),
	}
	for _, layer := range m.Layers {
		data.Layers = append(data.Layers, serializeLayer(layer))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&data); err != nil {
		return nil, fmt.Errorf("failed to marshal map data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal map data: %w", err)
	}
	return buf.Bytes(), nil
}

// serializeLayer converts a MapLayer to LayerData
func serializeLayer(layer mapgen.MapLayer) LayerData {
	ld := LayerData{
		Index:    layer.LayerIndex,
		Boss:     Text(layer.Boss),
		Location: Text(layer.Location),
		Nodes:    make([]NodeData, 0, len(layer.Nodes)),
	}
	for _, n := range layer.Nodes {
		nd := NodeData{
			ID:         Text(n.ID),
			Type:       n.Type.String(),
			Layer:      n.LayerIndex,
			Path:       n.PathIndex,
			Node:       n.NodeIndex,
			Properties: make(map[string]yaml.Node, len(n.Properties)),
		}
		for key, value := range n.Properties {
			nd.Properties[key] = encodeValue(value)
		}
		ld.Nodes = append(ld.Nodes, nd)
	}
	return ld
}

// encodeValue renders a property value as a tagged YAML scalar
func encodeValue(v mapgen.Value) yaml.Node {
	node := yaml.Node{Kind: yaml.ScalarNode}
	switch v.Kind() {
	case mapgen.KindInt:
		i, _ := v.AsInt()
		node.Tag = "!!int"
		node.Value = strconv.FormatInt(i, 10)
	case mapgen.KindFloat:
		f, _ := v.AsFloat()
		node.Tag = "!!float"
		node.Value = formatFloat(f)
	case mapgen.KindBool:
		b, _ := v.AsBool()
		node.Tag = "!!bool"
		node.Value = strconv.FormatBool(b)
	default:
		s, _ := v.AsString()
		return *quoted(s)
	}
	return node
}

// formatFloat prints the shortest exact form, always with a decimal point
// so the value reads back as a float
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	switch s {
	case "+Inf":
		return ".inf"
	case "-Inf":
		return "-.inf"
	case "NaN":
		return ".nan"
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Deserialize decodes a YAML document into a map. Unknown fields, a missing
// or unsupported version, and any broken map invariant are ErrFormat.
func Deserialize(text []byte) (*mapgen.MysticalMap, error) {
	dec := yaml.NewDecoder(bytes.NewReader(text))
	dec.KnownFields(true)

	var data MapData
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: document is empty", ErrFormat)
		}
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing content after the map document", ErrFormat)
	}

	if data.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, data.Version)
	}

	m := &mapgen.MysticalMap{
		Seed:   string(data.Seed),
		Layers: make([]mapgen.MapLayer, 0, len(data.Layers)),
	}
	for _, ld := range data.Layers {
		layer, err := deserializeLayer(ld)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrFormat, ld.Index, err)
		}
		m.Layers = append(m.Layers, layer)
	}

	if err := mapgen.Validate(m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return m, nil
}

// deserializeLayer converts LayerData back to a MapLayer
func deserializeLayer(ld LayerData) (mapgen.MapLayer, error) {
	layer := mapgen.MapLayer{
		LayerIndex: ld.Index,
		Boss:       string(ld.Boss),
		Location:   string(ld.Location),
		Nodes:      make([]mapgen.MapNode, 0, len(ld.Nodes)),
	}

	for _, nd := range ld.Nodes {
		nodeType, ok := mapgen.ParseNodeType(nd.Type)
		if !ok {
			return layer, fmt.Errorf("node %q has unknown type %q", nd.ID, nd.Type)
		}

		props := make(mapgen.Properties, len(nd.Properties))
		for key, raw := range nd.Properties {
			value, err := decodeValue(&raw)
			if err != nil {
				return layer, fmt.Errorf("node %q property %s: %w", nd.ID, key, err)
			}
			props[key] = value
		}

		layer.Nodes = append(layer.Nodes, mapgen.MapNode{
			ID:         string(nd.ID),
			Type:       nodeType,
			LayerIndex: nd.Layer,
			PathIndex:  nd.Path,
			NodeIndex:  nd.Node,
			Properties: props,
		})
	}
	return layer, nil
}

// decodeValue reads a scalar node back into a property value using its tag
func decodeValue(node *yaml.Node) (mapgen.Value, error) {
	if node.Kind != yaml.ScalarNode {
		return mapgen.Value{}, fmt.Errorf("line %d: expected a scalar", node.Line)
	}

	switch node.ShortTag() {
	case "!!str":
		return mapgen.StringValue(node.Value), nil
	case "!!binary":
		var s string
		if err := node.Decode(&s); err != nil {
			return mapgen.Value{}, err
		}
		return mapgen.StringValue(s), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return mapgen.Value{}, err
		}
		return mapgen.IntValue(i), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return mapgen.Value{}, err
		}
		return mapgen.FloatValue(f), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return mapgen.Value{}, err
		}
		return mapgen.BoolValue(b), nil
	default:
		return mapgen.Value{}, fmt.Errorf("line %d: unsupported scalar %s", node.Line, node.ShortTag())
	}
}
