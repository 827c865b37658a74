package mapcodec

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
)

// Save writes the map to a YAML file, creating parent directories as needed
func Save(m *mapgen.MysticalMap, filename string) error {
	text, err := Serialize(m)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create map directory: %w", err)
		}
	}

	if err := os.WriteFile(filename, text, 0644); err != nil {
		return fmt.Errorf("failed to write map file: %w", err)
	}
	return nil
}

// Load reads a map from a YAML file written by Save
func Load(filename string) (*mapgen.MysticalMap, error) {
	text, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}
	return Deserialize(text)
}

// FileExists checks if a map file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
