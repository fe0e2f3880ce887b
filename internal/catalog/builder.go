package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"soundunpack/internal/archive"
	"soundunpack/internal/fileutil"
	"soundunpack/internal/logging"
	"soundunpack/internal/progress"
	"soundunpack/internal/services"
	"soundunpack/internal/soundbank"
)

// Layout describes where extracted payloads live and where output goes.
type Layout struct {
	TmpDir         string
	DestinationDir string
	// MetadataFile is the sound bank document name inside each payload directory.
	MetadataFile string
	// OutputExtension replaces the extension of each logical path.
	OutputExtension string
	// UnlocalizedLanguage is the language tag whose files sit directly in the
	// payload directory rather than in a per-language subdirectory.
	UnlocalizedLanguage string
}

// ArchiveCount summarizes one archive's contribution to the mapping.
type ArchiveCount struct {
	Archive  string
	Records  int
	Admitted int
	// Missing counts records whose source file was not extracted.
	Missing int
	// Rejected counts records whose logical path escapes the destination.
	Rejected int
}

// Collision records two different sources that claimed the same destination.
type Collision struct {
	Key      string
	Existing string
	Incoming string
	// Resolved is the destination the incoming source ended up at.
	Resolved string
	// Admitted is false when the incoming content matched a numbered variant.
	Admitted bool
}

// Result is the output of Build.
type Result struct {
	Mapping    *Mapping
	Counts     []ArchiveCount
	Collisions []Collision
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logging.NewComponentLogger(logger, "catalog")
		}
	}
}

// WithProgress attaches a progress reporter.
func WithProgress(reporter progress.Reporter) BuilderOption {
	return func(b *Builder) {
		if reporter != nil {
			b.progress = reporter
		}
	}
}

// WithHasher overrides content hashing (primarily for tests).
func WithHasher(hash func(path string) (fileutil.Digest, int64, error)) BuilderOption {
	return func(b *Builder) {
		if hash != nil {
			b.hash = hash
		}
	}
}

// Builder assembles a Mapping from the metadata of extracted archives.
type Builder struct {
	layout   Layout
	logger   *slog.Logger
	progress progress.Reporter
	hash     func(path string) (fileutil.Digest, int64, error)
	upper    cases.Caser
}

// NewBuilder constructs a Builder.
func NewBuilder(layout Layout, opts ...BuilderOption) *Builder {
	b := &Builder{
		layout:   layout,
		logger:   logging.NewNop(),
		progress: progress.Nop{},
		hash:     fileutil.HashFile,
		upper:    cases.Upper(language.Und),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SourcePath returns the extracted payload file for record.
func (b *Builder) SourcePath(spec archive.Spec, record soundbank.Record) string {
	dir := spec.PayloadDir(b.layout.TmpDir)
	if record.Language != b.layout.UnlocalizedLanguage {
		dir = filepath.Join(dir, b.upper.String(record.Language))
	}
	return filepath.Join(dir, record.ID+".WEM")
}

// DestinationPath returns the output file for record, or false when the
// logical path would leave the destination directory.
func (b *Builder) DestinationPath(record soundbank.Record) (string, bool) {
	logical := strings.ReplaceAll(record.Path, `\`, "/")
	logical = fileutil.ReplaceExt(logical, b.layout.OutputExtension)
	rel := filepath.Clean(filepath.FromSlash(strings.TrimLeft(logical, "/")))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(b.layout.DestinationDir, rel), true
}

// MetadataPath returns the sound bank document for spec.
func (b *Builder) MetadataPath(spec archive.Spec) string {
	return filepath.Join(spec.PayloadDir(b.layout.TmpDir), b.layout.MetadataFile)
}

// Build processes specs in order and returns the resulting mapping.
func (b *Builder) Build(ctx context.Context, specs []archive.Spec) (*Result, error) {
	run := &buildRun{
		builder: b,
		result:  &Result{Mapping: NewMapping()},
		digests: make(map[string]fileutil.Digest),
	}

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return run.result, err
		}
		count, err := run.addArchive(services.WithArchive(ctx, spec.Name), spec)
		if err != nil {
			return run.result, err
		}
		run.result.Counts = append(run.result.Counts, count)
	}
	return run.result, nil
}

type buildRun struct {
	builder *Builder
	result  *Result
	digests map[string]fileutil.Digest
}

func (r *buildRun) addArchive(ctx context.Context, spec archive.Spec) (ArchiveCount, error) {
	b := r.builder
	logger := logging.WithContext(ctx, b.logger)
	count := ArchiveCount{Archive: spec.Name}

	records, err := soundbank.Load(b.MetadataPath(spec))
	if err != nil {
		return count, err
	}
	count.Records = len(records)

	bar := b.progress.Start(fmt.Sprintf("Collecting files from %s", spec.Name), len(records))
	defer bar.Finish()

	for _, record := range records {
		admitted, err := r.addRecord(logger, spec, record, &count)
		if err != nil {
			return count, err
		}
		if admitted {
			count.Admitted++
		}
		bar.Add(1)
	}

	logger.Info("files collected",
		logging.Int("records", count.Records),
		logging.Int("admitted", count.Admitted),
		logging.Int("missing", count.Missing),
	)
	return count, nil
}

func (r *buildRun) addRecord(logger *slog.Logger, spec archive.Spec, record soundbank.Record, count *ArchiveCount) (bool, error) {
	b := r.builder
	source := b.SourcePath(spec, record)
	destination, ok := b.DestinationPath(record)
	if !ok {
		count.Rejected++
		logging.WarnWithContext(logger, "logical path escapes destination; record ignored", "metadata_path_rejected",
			logging.String("path", record.Path),
			logging.String("id", record.ID),
			logging.String(logging.FieldImpact, "file not converted"),
		)
		return false, nil
	}
	if !fileutil.IsRegular(source) {
		count.Missing++
		logger.Debug("source not extracted; record dropped",
			logging.String(logging.FieldSource, source),
			logging.String("id", record.ID),
			logging.String("language", record.Language),
		)
		return false, nil
	}

	entry := Entry{Source: source, Archive: spec.Name, Language: record.Language, ID: record.ID}
	mapping := r.result.Mapping

	existing, occupied := mapping.Get(destination)
	if !occupied {
		return true, mapping.Add(destination, entry)
	}
	if existing.Source == source {
		return false, nil
	}

	incoming, err := r.digest(source)
	if err != nil {
		return false, err
	}
	resolved, admit, err := Resolve(destination, incoming, r.lookup)
	if err != nil {
		return false, err
	}
	if resolved == destination {
		logger.Debug("duplicate content under another entry",
			logging.String(logging.FieldDestination, destination),
			logging.String(logging.FieldSource, source),
		)
		return false, nil
	}

	collision := Collision{
		Key:      destination,
		Existing: existing.Source,
		Incoming: source,
		Resolved: resolved,
		Admitted: admit,
	}
	r.result.Collisions = append(r.result.Collisions, collision)
	logging.WarnWithContext(logger, "destination collision", "destination_collision",
		logging.String(logging.FieldDestination, destination),
		logging.String("existing", existing.Source),
		logging.String("incoming", source),
		logging.String("resolved", resolved),
		logging.Bool("admitted", admit),
		logging.String(logging.FieldErrorHint, "compare both sources if the numbered file is unexpected"),
		logging.String(logging.FieldImpact, "file written under a numbered name"),
	)
	if !admit {
		return false, nil
	}
	entry.Digest = incoming
	return true, mapping.Add(resolved, entry)
}

func (r *buildRun) lookup(key string) (fileutil.Digest, bool, error) {
	entry, ok := r.result.Mapping.Get(key)
	if !ok {
		return fileutil.Digest{}, false, nil
	}
	digest, err := r.digest(entry.Source)
	return digest, true, err
}

func (r *buildRun) digest(path string) (fileutil.Digest, error) {
	if digest, ok := r.digests[path]; ok {
		return digest, nil
	}
	digest, _, err := r.builder.hash(path)
	if err != nil {
		return fileutil.Digest{}, services.Wrap(services.ErrValidation, "catalog", "hash", path, err)
	}
	r.digests[path] = digest
	return digest, nil
}

// Missing reports source files referenced by the metadata of specs that do
// not exist on disk, grouped per archive. It does not build a mapping.
func (b *Builder) Missing(specs []archive.Spec) (map[string][]string, error) {
	missing := make(map[string][]string)
	for _, spec := range specs {
		records, err := soundbank.Load(b.MetadataPath(spec))
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			source := b.SourcePath(spec, record)
			if _, err := os.Stat(source); err != nil {
				missing[spec.Name] = append(missing[spec.Name], source)
			}
		}
	}
	return missing, nil
}
