package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"pageforge/internal/definition"
	"pageforge/internal/migration"
	"pageforge/internal/page"
	"pageforge/internal/store"
	"pageforge/internal/trace"
	"pageforge/internal/version"
)

// Result reports the outcome of one pipeline run.
type Result struct {
	Code          int
	SchemaVersion string
	Checksum      string
	QuarantineID  string
}

// Execute runs the pipeline for one invocation: load the raw document,
// migrate it to the latest schema version, stamp its checksum, and write
// the result to the requested sinks.
//
// Failures never produce partial output: on any pipeline error the
// output path and store are left untouched, and the document is
// quarantined when a store is configured.
func Execute(ctx context.Context, inv Invocation) (Result, error) {
	logger := newLogger(inv.Quiet)

	if err := ctx.Err(); err != nil {
		return Result{Code: ExitInternalError}, err
	}

	registry, err := page.NewRegistry()
	if err != nil {
		logger.Error().Err(err).Msg("registry construction failed")
		return Result{Code: ExitInternalError}, err
	}
	if err := registry.Validate(page.LatestSchemaVersion); err != nil {
		// A registry that fails validation would fail some document at
		// request time; refuse to process anything.
		logger.Error().Err(err).Msg("registry validation failed")
		return Result{Code: ExitInternalError}, err
	}

	raw, err := os.ReadFile(inv.InputPath)
	if err != nil {
		logger.Error().Err(err).Str("path", inv.InputPath).Msg("read input")
		return Result{Code: ExitInputError}, err
	}

	var st *store.Store
	if inv.StoreDir != "" {
		st, err = store.NewStore(inv.StoreDir)
		if err != nil {
			logger.Error().Err(err).Msg("open store")
			return Result{Code: ExitInternalError}, err
		}
	}

	def, err := definition.Decode(raw, formatForPath(inv.InputPath))
	if err != nil {
		logger.Error().Err(err).Str("slug", inv.Slug).Msg("decode input")
		return quarantined(logger, st, inv.Slug, raw, err, ExitInputError)
	}

	engine, err := migration.NewEngine(registry, page.LatestSchemaVersion)
	if err != nil {
		logger.Error().Err(err).Msg("engine construction failed")
		return Result{Code: ExitInternalError}, err
	}
	recorder := trace.NewRecorder()
	engine = engine.WithSink(recorder)

	migrated, err := engine.MigrateToLatest(def)
	if err != nil {
		logger.Error().Err(err).
			Str("slug", inv.Slug).
			Str("schemaVersion", def.SchemaVersion).
			Msg("migration failed")
		return quarantined(logger, st, inv.Slug, raw, err, exitCodeFor(err))
	}

	stamped, err := definition.NewChecksummer().Stamp(migrated)
	if err != nil {
		logger.Error().Err(err).Str("slug", inv.Slug).Msg("checksum failed")
		return quarantined(logger, st, inv.Slug, raw, err, exitCodeFor(err))
	}
	trace.SafeRecord(recorder, trace.Event{Kind: trace.EventChecksumStamped, Checksum: stamped.Checksum})

	logger.Info().
		Str("slug", inv.Slug).
		Str("from", def.SchemaVersion).
		Str("to", stamped.SchemaVersion).
		Str("checksum", stamped.Checksum).
		Msg("pipeline complete")

	encoded, err := definition.Encode(stamped)
	if err != nil {
		return Result{Code: ExitInternalError}, err
	}
	if inv.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(inv.OutputPath), 0o755); err != nil {
			return Result{Code: ExitInternalError}, err
		}
		if err := os.WriteFile(inv.OutputPath, encoded, 0o644); err != nil {
			logger.Error().Err(err).Str("path", inv.OutputPath).Msg("write output")
			return Result{Code: ExitInternalError}, err
		}
	}
	if st != nil {
		if err := st.SaveDefinition(inv.Slug, stamped); err != nil {
			logger.Error().Err(err).Str("slug", inv.Slug).Msg("store definition")
			return Result{Code: ExitInternalError}, err
		}
	}
	if inv.OutputPath == "" && st == nil {
		if _, err := os.Stdout.Write(encoded); err != nil {
			return Result{Code: ExitInternalError}, err
		}
	}

	if inv.TracePath != "" {
		tr := recorder.Trace(inv.Slug)
		b, err := tr.CanonicalJSON()
		if err != nil {
			return Result{Code: ExitInternalError}, err
		}
		if err := os.MkdirAll(filepath.Dir(inv.TracePath), 0o755); err != nil {
			return Result{Code: ExitInternalError}, err
		}
		if err := os.WriteFile(inv.TracePath, append(b, '\n'), 0o644); err != nil {
			logger.Error().Err(err).Str("path", inv.TracePath).Msg("write trace")
			return Result{Code: ExitInternalError}, err
		}
	}

	return Result{
		Code:          ExitSuccess,
		SchemaVersion: stamped.SchemaVersion,
		Checksum:      stamped.Checksum,
	}, nil
}

func quarantined(logger zerolog.Logger, st *store.Store, slug string, raw []byte, cause error, code int) (Result, error) {
	res := Result{Code: code}
	if st == nil {
		return res, cause
	}
	rec, qerr := st.Quarantine(slug, raw, cause)
	if qerr != nil {
		logger.Error().Err(qerr).Str("slug", slug).Msg("quarantine write failed")
		return res, cause
	}
	logger.Warn().
		Str("slug", slug).
		Str("quarantineId", rec.ID).
		Str("failureClass", string(rec.FailureClass)).
		Msg("document quarantined")
	res.QuarantineID = rec.ID
	return res, cause
}

// exitCodeFor maps pipeline error kinds to semantic exit codes.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, migration.ErrMigrationLoop),
		errors.Is(err, migration.ErrNoMigrationPath),
		errors.Is(err, migration.ErrUnsupportedFutureVersion),
		errors.Is(err, definition.ErrUnencodableValue):
		return ExitPipelineFailure
	case errors.Is(err, definition.ErrMalformedDocument),
		errors.Is(err, definition.ErrMissingSchemaVersion),
		errors.Is(err, version.ErrInvalidVersion):
		return ExitInputError
	default:
		return ExitInternalError
	}
}

func formatForPath(path string) definition.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return definition.FormatYAML
	default:
		return definition.FormatJSON
	}
}

func newLogger(quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.ErrorLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("component", "pageforge").Logger()
}
