package migrate

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/pressly/goose/v3"
)

const versionLayout = "20060102150405"

var sqlTemplate = template.Must(template.New("migration").Parse(`-- +goose Up
-- +goose StatementBegin
-- {{.}}
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- undo {{.}}
-- +goose StatementEnd
`))

// CreateSQLMigration writes an empty goose migration named
// <dir>/<UTC timestamp>_<slug>.sql and returns its path. It never overwrites.
func CreateSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := slugify(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}

	var body bytes.Buffer
	if err := sqlTemplate.Execute(&body, slug); err != nil {
		return "", fmt.Errorf("render migration: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	target := filepath.Join(dir, now.UTC().Format(versionLayout)+"_"+slug+".sql")
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	if _, err := f.Write(body.Bytes()); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, f.Close()
}

// slugify lowercases name and collapses every run of other characters into
// one underscore.
func slugify(name string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if gap && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			gap = false
			continue
		}
		gap = true
	}
	return b.String()
}

// ValidateDir checks the .sql files under dir.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if _, err := validateFS(os.DirFS(dir), "."); err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}
	return nil
}

// ValidateDirs validates each directory and requires them all to carry the
// same migration versions, so postgres and sqlite stay in step.
func ValidateDirs(dirs ...string) error {
	var first map[int64]string
	for i, dir := range dirs {
		versions, err := validateFS(os.DirFS(dir), ".")
		if err != nil {
			return fmt.Errorf("%s: %w", dir, err)
		}
		if i == 0 {
			first = versions
			continue
		}
		for v, name := range versions {
			if _, ok := first[v]; !ok {
				return fmt.Errorf("%s: %s has no counterpart in %s", dir, name, dirs[0])
			}
		}
		for v, name := range first {
			if _, ok := versions[v]; !ok {
				return fmt.Errorf("%s: %s has no counterpart in %s", dirs[0], name, dir)
			}
		}
	}
	return nil
}

// ValidateEmbedded checks the migrations compiled in for driver.
func ValidateEmbedded(driver string) error {
	_, err := validateFS(embedded, DriverDir("migrations", driver))
	return err
}

// validateFS requires a 14 digit version, a lowercase slug, unique versions
// and both goose sections in every migration. It returns the versions found.
func validateFS(fsys fs.FS, dir string) (map[int64]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	versions := make(map[int64]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		if err := checkFilename(name); err != nil {
			return nil, err
		}
		version, err := goose.NumericComponent(name)
		if err != nil {
			return nil, fmt.Errorf("invalid migration filename %q: %w", name, err)
		}
		if other, dup := versions[version]; dup {
			return nil, fmt.Errorf("migrations %q and %q share version %d", other, name, version)
		}
		versions[version] = name

		content, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !bytes.Contains(content, []byte(marker)) {
				return nil, fmt.Errorf("migration %q lacks %q", name, marker)
			}
		}
	}
	return versions, nil
}

func checkFilename(name string) error {
	version, slug, ok := strings.Cut(strings.TrimSuffix(name, ".sql"), "_")
	valid := ok && len(version) == len(versionLayout) && slug != "" && slugify(slug) == slug
	for _, r := range version {
		valid = valid && r >= '0' && r <= '9'
	}
	if !valid {
		return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
	}
	return nil
}
