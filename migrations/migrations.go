// Package migrations embeds the PostgreSQL schema migrations.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// FS holds every migration file.
//
//go:embed *.sql
var FS embed.FS

// Up returns the concatenated up migrations in version order.
func Up() (string, error) {
	names, err := fs.Glob(FS, "*.up.sql")
	if err != nil {
		return "", fmt.Errorf("listing migrations: %w", err)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		body, err := FS.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("reading migration %q: %w", name, err)
		}
		b.Write(body)
		b.WriteString("\n")
	}
	return b.String(), nil
}
