package mapcodec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"
)

func generate(t *testing.T, seed string) *mapgen.MysticalMap {
	t.Helper()
	m, err := mapgen.GenerateMap(seed)
	if err != nil {
		t.Fatalf("GenerateMap(%q) failed: %v", seed, err)
	}
	return m
}

func TestRoundTrip(t *testing.T) {
	seeds := []string{
		"MYSTICAL_TEST_SEED_42", "種子🌱", "  spaced  ", "line\nbreak", "true", "0.5",
		"\na", "\t\na", "a\n", " x ", "\x00", "a\x00b", "\r\nx", "# comment", "- item",
		"key: value", "'quoted'", "\"double\"", "\\", "null", "~", "\u2028sep", "\ufeffbom",
		"\xff\xfe",
	}
	for i := 0; i < 20; i++ {
		seeds = append(seeds, fmt.Sprintf("roundtrip-%d", i))
	}

	for _, seed := range seeds {
		m := generate(t, seed)
		text, err := Serialize(m)
		if err != nil {
			t.Fatalf("Serialize(%q) failed: %v", seed, err)
		}

		back, err := Deserialize(text)
		if err != nil {
			t.Fatalf("Deserialize(%q) failed: %v\n%s", seed, err, text)
		}
		if !m.Equal(back) {
			t.Errorf("seed %q did not survive the round trip", seed)
		}
	}
}

func TestRoundTripRapid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.StringN(1, 80, -1).Draw(rt, "seed")
		if strings.TrimSpace(seed) == "" {
			rt.Skip("blank seeds are minted")
		}

		m, err := mapgen.GenerateMap(seed)
		if err != nil {
			rt.Fatalf("GenerateMap failed: %v", err)
		}
		text, err := Serialize(m)
		if err != nil {
			rt.Fatalf("Serialize failed: %v", err)
		}
		back, err := Deserialize(text)
		if err != nil {
			rt.Fatalf("Deserialize failed: %v\n%s", err, text)
		}
		if !m.Equal(back) {
			rt.Fatalf("seed %q came back as %q", seed, back.Seed)
		}
	})
}

func TestStringFieldsSurvive(t *testing.T) {
	m := generate(t, "strings")
	m.Layers[0].Location = "\t\nHall "
	m.Layers[0].Nodes[0].Properties["Note"] = mapgen.StringValue("\nline\t")
	m.Layers[0].Nodes[0].Properties["Raw"] = mapgen.StringValue("\xff")

	text, err := Serialize(m)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	back, err := Deserialize(text)
	if err != nil {
		t.Fatalf("Deserialize failed: %v\n%s", err, text)
	}
	if back.Layers[0].Location != m.Layers[0].Location {
		t.Errorf("Location = %q, want %q", back.Layers[0].Location, m.Layers[0].Location)
	}
	for _, key := range []string{"Note", "Raw"} {
		if got, want := back.Layers[0].Nodes[0].Properties[key], m.Layers[0].Nodes[0].Properties[key]; got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
}

func TestSerializeIsStable(t *testing.T) {
	m := generate(t, "stable")
	a, _ := Serialize(m)
	b, _ := Serialize(m)
	if string(a) != string(b) {
		t.Error("serializing the same map twice produced different text")
	}
	if !strings.HasPrefix(string(a), "version: 1\n") {
		t.Errorf("document should start with the version, got %q", firstLine(a))
	}
}

func TestSerializeNil(t *testing.T) {
	if _, err := Serialize(nil); err == nil {
		t.Error("Serialize(nil) should fail")
	}
}

func TestValueKindsSurvive(t *testing.T) {
	m := generate(t, "kinds")

	// Force values whose text would otherwise resolve to a different kind
	node := &m.Layers[0].Nodes[0]
	node.Properties["Note"] = mapgen.StringValue("42")
	node.Properties["Flag"] = mapgen.StringValue("yes")
	node.Properties["Whole"] = mapgen.FloatValue(3)
	node.Properties["Tiny"] = mapgen.FloatValue(1e-9)

	text, err := Serialize(m)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	back, err := Deserialize(text)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	got := back.Layers[0].Nodes[0].Properties
	for key, want := range node.Properties {
		if got[key] != want {
			t.Errorf("%s: got %v (%s), want %v (%s)", key, got[key], got[key].Kind(), want, want.Kind())
		}
	}
}

func TestDeserializeHandEditedNumbers(t *testing.T) {
	m := generate(t, "hand-edited")
	text, _ := Serialize(m)

	var doc MapData
	if err := yaml.Unmarshal(text, &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	// A hand-written whole number reads back as an integer
	props := doc.Layers[0].Nodes[0].Properties
	props["Custom"] = yaml.Node{Kind: yaml.ScalarNode, Value: "2"}
	edited, err := yaml.Marshal(&doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	back, err := Deserialize(edited)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if v := back.Layers[0].Nodes[0].Properties["Custom"]; v != mapgen.IntValue(2) {
		t.Errorf("Custom = %v (%s), want int 2", v, v.Kind())
	}
}

func TestDeserializeRejects(t *testing.T) {
	valid, err := Serialize(generate(t, "reject"))
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	text := string(valid)

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"not yaml", "version: [1, 2\n"},
		{"scalar document", "just a string\n"},
		{"wrong version", strings.Replace(text, "version: 1", "version: 2", 1)},
		{"missing version", strings.Replace(text, "version: 1\n", "", 1)},
		{"unknown field", strings.Replace(text, "version: 1\n", "version: 1\nextra: true\n", 1)},
		{"unknown node type", strings.Replace(text, "type: Boss", "type: Dragon", 1)},
		{"no layers", "version: 1\nseed: x\nlayers: []\n"},
		{"blank seed", strings.Replace(text, "seed: \"reject\"", "seed: \"\"", 1)},
		{"nested property", withProperty(t, valid, "Nested", yaml.Node{Kind: yaml.MappingNode})},
		{"null property", withProperty(t, valid, "Empty", yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"})},
		{"trailing document", text + "---\nversion: 1\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Deserialize([]byte(tc.text))
			if !errors.Is(err, ErrFormat) {
				t.Errorf("Deserialize() = %v, want ErrFormat", err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maps", "run.yaml")
	m := generate(t, "persisted")

	if FileExists(path) {
		t.Fatal("file should not exist yet")
	}
	if err := Save(m, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !FileExists(path) {
		t.Fatal("file should exist after Save")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !m.Equal(loaded) {
		t.Error("loaded map differs from saved map")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) = %v, want not-exist", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("version: 1\nseed: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrFormat) {
		t.Errorf("Load(bad) = %v, want ErrFormat", err)
	}
}

// withProperty returns the document with an extra property on its first node
func withProperty(t *testing.T, text []byte, key string, value yaml.Node) string {
	t.Helper()
	var doc MapData
	if err := yaml.Unmarshal(text, &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	doc.Layers[0].Nodes[0].Properties[key] = value
	out, err := yaml.Marshal(&doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return string(out)
}

func firstLine(b []byte) string {
	s := string(b)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
