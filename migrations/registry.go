package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	finsec "github.com/StavoMidnite661/FinSec-Chrome-Extension"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const (
	defaultSourceLabel = "finsec-payflow"
	migrationsRoot     = "data/sql/migrations"
)

// FilesystemSpec pairs one dialect with the migration files that apply to it.
type FilesystemSpec struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type Registration struct {
	SourceLabel       string
	ValidationTargets []string
	Filesystems       []FilesystemSpec
}

// RegisterFunc receives one dialect's migration filesystem. The persistence
// layer passes client.RegisterSQLMigrations here.
type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithDialectSourceLabel(label string) Option {
	return func(r *Registration) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			r.SourceLabel = trimmed
		}
	}
}

func WithValidationTargets(targets ...string) Option {
	return func(r *Registration) {
		if cleaned := normalizeDialects(targets); len(cleaned) > 0 {
			r.ValidationTargets = cleaned
		}
	}
}

func WithFilesystems(filesystems ...FilesystemSpec) Option {
	return func(r *Registration) {
		kept := make([]FilesystemSpec, 0, len(filesystems))
		for _, spec := range filesystems {
			spec.Dialect = normalizeDialect(spec.Dialect)
			if spec.Dialect == "" || spec.FS == nil {
				continue
			}
			kept = append(kept, spec)
		}
		if len(kept) > 0 {
			r.Filesystems = kept
		}
	}
}

// Filesystems resolves the per-dialect migration filesystems from the embedded
// tree. Postgres files live at the root, sqlite alternatives under sqlite/.
func Filesystems(sources ...fs.FS) ([]FilesystemSpec, error) {
	root := finsec.GetMigrationsFS()
	if len(sources) > 0 && sources[0] != nil {
		root = sources[0]
	}

	layout := []struct {
		dialect string
		subdir  string
	}{
		{dialect: DialectPostgres, subdir: ""},
		{dialect: DialectSQLite, subdir: "sqlite"},
	}

	filesystems := make([]FilesystemSpec, 0, len(layout))
	for _, entry := range layout {
		path := migrationsRoot
		if entry.subdir != "" {
			path = migrationsRoot + "/" + entry.subdir
		}
		fsys, err := fs.Sub(root, path)
		if err != nil {
			return nil, fmt.Errorf("migrations: %s filesystem %q not found: %w", entry.dialect, path, err)
		}
		matches, err := fs.Glob(fsys, "*.up.sql")
		if err != nil {
			return nil, fmt.Errorf("migrations: glob %s %s: %w", entry.dialect, path, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("migrations: %s filesystem %q has no *.up.sql files", entry.dialect, path)
		}
		filesystems = append(filesystems, FilesystemSpec{Dialect: entry.dialect, Path: path, FS: fsys})
	}

	return filesystems, nil
}

// Register invokes registerFn for every dialect named in the validation
// targets. Targets default to both supported dialects.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel:       defaultSourceLabel,
		ValidationTargets: []string{DialectPostgres, DialectSQLite},
	}

	filesystems, err := Filesystems()
	if err != nil {
		return reg, err
	}
	reg.Filesystems = filesystems

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&reg)
	}

	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}
	if strings.TrimSpace(reg.SourceLabel) == "" {
		return reg, fmt.Errorf("migrations: source label is required")
	}
	targets := normalizeDialects(reg.ValidationTargets)
	if len(targets) == 0 {
		return reg, fmt.Errorf("migrations: validation targets are required")
	}

	for _, spec := range reg.Filesystems {
		if !slices.Contains(targets, spec.Dialect) {
			continue
		}
		if spec.FS == nil {
			return reg, fmt.Errorf("migrations: filesystem for %s is nil", spec.Dialect)
		}
		if err := registerFn(ctx, spec.Dialect, reg.SourceLabel, spec.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", spec.Dialect, spec.Path, err)
		}
	}

	return reg, nil
}

func normalizeDialect(dialect string) string {
	return strings.ToLower(strings.TrimSpace(dialect))
}

func normalizeDialects(dialects []string) []string {
	out := make([]string, 0, len(dialects))
	for _, dialect := range dialects {
		cleaned := normalizeDialect(dialect)
		if cleaned == "" || slices.Contains(out, cleaned) {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}
