package mapgen

import (
	"fmt"
	"sort"
	"strconv"
)

// NodeType is the kind of a traversable node.
type NodeType int

const (
	NodeBoss      NodeType = iota // Terminal node of every path
	NodeEncounter                 // Combat encounter
	NodeRestShop                  // Rest stop with a merchant
	NodeEvent                     // Random event
)

// AllNodeTypes lists every node type in declaration order.
var AllNodeTypes = []NodeType{NodeBoss, NodeEncounter, NodeRestShop, NodeEvent}

// String returns the string representation of a NodeType
func (t NodeType) String() string {
	switch t {
	case NodeBoss:
		return "Boss"
	case NodeEncounter:
		return "Encounter"
	case NodeRestShop:
		return "RestShop"
	case NodeEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the node type is one of the known variants.
func (t NodeType) IsValid() bool {
	switch t {
	case NodeBoss, NodeEncounter, NodeRestShop, NodeEvent:
		return true
	}
	return false
}

// ParseNodeType converts a string to a NodeType, returning false if unknown.
func ParseNodeType(s string) (NodeType, bool) {
	for _, t := range AllNodeTypes {
		if t.String() == s {
			return t, true
		}
	}
	return NodeBoss, false
}

// Property keys
const (
	KeyBossName         = "BossName"
	KeyLocation         = "Location"
	KeyDifficulty       = "Difficulty"
	KeyIsFinalBoss      = "IsFinalBoss"
	KeyEncounterType    = "EncounterType"
	KeyEnemyCount       = "EnemyCount"
	KeyRewardMultiplier = "RewardMultiplier"
	KeyIsElite          = "IsElite"
	KeyRestEfficiency   = "RestEfficiency"
	KeyShopQuality      = "ShopQuality"
	KeyEventType        = "EventType"
	KeyRiskLevel        = "RiskLevel"
)

var requiredKeys = map[NodeType][]string{
	NodeBoss:      {KeyBossName, KeyLocation, KeyDifficulty},
	NodeEncounter: {KeyEncounterType, KeyEnemyCount, KeyRewardMultiplier},
	NodeRestShop:  {KeyRestEfficiency, KeyShopQuality},
	NodeEvent:     {KeyEventType, KeyRiskLevel},
}

// RequiredKeys returns the property keys a node of the given type must carry.
func RequiredKeys(t NodeType) []string {
	keys := requiredKeys[t]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// ValueKind identifies which member of a Value is set.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
	KindBool
)

// String returns the string representation of a ValueKind
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a loosely typed property value: a string, integer, float or bool.
// Values are comparable with ==.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
}

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue wraps an integer.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue wraps a float.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the kind of the value.
func (v Value) Kind() ValueKind { return v.kind }

// AsString returns the string and whether the value is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsInt returns the integer and whether the value is an integer.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the value as a float. Integers widen; other kinds report false.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsBool returns the bool and whether the value is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// String formats the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return fmt.Sprintf("<kind %d>", v.kind)
	}
}

// Properties is a node's property bag.
type Properties map[string]Value

// Keys returns the property keys in sorted order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has returns true if the key is present.
func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// GetString returns a string property, or "" when missing or not a string.
func (p Properties) GetString(key string) string {
	s, _ := p[key].AsString()
	return s
}

// GetInt returns an integer property, or 0 when missing or not an integer.
func (p Properties) GetInt(key string) int64 {
	i, _ := p[key].AsInt()
	return i
}

// GetFloat returns a numeric property as float, or 0 when missing.
func (p Properties) GetFloat(key string) float64 {
	f, _ := p[key].AsFloat()
	return f
}

// GetBool returns a bool property, or false when missing or not a bool.
func (p Properties) GetBool(key string) bool {
	b, _ := p[key].AsBool()
	return b
}

// Equal reports whether both bags hold the same keys with the same values.
func (p Properties) Equal(other Properties) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// MapNode is one traversable unit within a layer.
type MapNode struct {
	ID         string
	Type       NodeType
	LayerIndex int
	PathIndex  int
	NodeIndex  int
	Properties Properties
}

// Equal compares two nodes field by field.
func (n MapNode) Equal(other MapNode) bool {
	return n.ID == other.ID &&
		n.Type == other.Type &&
		n.LayerIndex == other.LayerIndex &&
		n.PathIndex == other.PathIndex &&
		n.NodeIndex == other.NodeIndex &&
		n.Properties.Equal(other.Properties)
}

// NodeID builds the identifier of the node at the given position.
func NodeID(layer, path, node int) string {
	return fmt.Sprintf("layer%d_path%d_node%d", layer, path, node)
}
