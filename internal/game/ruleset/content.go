// Package ruleset holds the fixed game content: selectable heroes,
// difficulties, floor themes and consumables. Content is read from YAML
// documents in an fs.FS so the embedded defaults can be replaced by a
// directory on disk.
package ruleset

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var embedded embed.FS

// Content document names shared by every package that reads the content tree.
const (
	HeroesFile       = "heroes.yaml"
	DifficultiesFile = "difficulties.yaml"
	FloorsFile       = "floors.yaml"
	ConsumablesFile  = "consumables.yaml"
	EnemiesFile      = "enemies.yaml"
	NamesFile        = "names.yaml"
)

// DefaultContent returns the content tree compiled into the binary.
//
// Postcondition: the returned FS contains every *File document at its root.
func DefaultContent() fs.FS {
	sub, err := fs.Sub(embedded, "content")
	if err != nil {
		panic("ruleset: embedded content tree missing: " + err.Error())
	}
	return sub
}

// OpenContent returns the content tree rooted at dir, or the embedded
// defaults when dir is empty.
//
// Postcondition: Returns a non-nil fs.FS or an error if dir is not a directory.
func OpenContent(dir string) (fs.FS, error) {
	if dir == "" {
		return DefaultContent(), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening content dir %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening content dir %q: not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// Decode reads the YAML document at path within fsys into v.
//
// Precondition: fsys must be non-nil and v must be a pointer.
func Decode(fsys fs.FS, path string, v any) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}
	return nil
}
