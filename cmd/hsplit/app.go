package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"hsplit/internal/compiledb"
	"hsplit/internal/config"
	"hsplit/internal/errors"
	"hsplit/internal/extract"
	"hsplit/internal/slogutil"
	"hsplit/internal/storage"
	"hsplit/internal/usage"
)

// appContext is the state shared by every command of one invocation.
type appContext struct {
	root    string
	cfg     *config.Config
	loaded  *config.LoadResult
	logger  *slog.Logger
	factory *slogutil.LoggerFactory
	format  OutputFormat
	debug   bool
}

var app *appContext

func setupApp(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(formatFlag)
	if err != nil {
		return err
	}

	root := rootFlag
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return errors.New(errors.InternalError, "failed to get current directory", err, nil)
		}
	}
	if root, err = filepath.Abs(root); err != nil {
		return errors.New(errors.InternalError, "failed to resolve project root", err, nil)
	}

	loaded, err := config.LoadConfigWithDetails(root)
	if err != nil {
		return errors.New(errors.ConfigInvalid, "failed to load config", err, nil)
	}
	if cmd.Annotations[skipValidation] == "" {
		if err := loaded.Config.Validate(); err != nil {
			return errors.New(errors.ConfigInvalid, "invalid configuration", err, nil)
		}
	}

	cliSet := verbosityFlag > 0 || quietFlag || debugFlag
	level := slogutil.LevelFromVerbosity(verbosityFlag, quietFlag)
	if debugFlag {
		level = slog.LevelDebug
	}
	factory := slogutil.NewLoggerFactory(root, loaded.Config, level, cliSet)
	logger := factory.CommandLogger(cmd.ErrOrStderr())

	for _, ov := range loaded.EnvOverrides {
		logger.Debug("Config override from environment", "env", ov.EnvVar, "path", ov.Path)
	}

	app = &appContext{
		root:    root,
		cfg:     loaded.Config,
		loaded:  loaded,
		logger:  logger,
		factory: factory,
		format:  format,
		debug:   debugFlag,
	}
	return nil
}

func (a *appContext) close() {
	if a == nil || a.factory == nil {
		return
	}
	_ = a.factory.Close()
}

// newContext returns a context cancelled on SIGINT or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// print writes resp to w in the selected output format.
func (a *appContext) print(w io.Writer, resp interface{}) error {
	out, err := FormatResponse(resp, a.format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func (a *appContext) newExtractor() (*extract.Extractor, error) {
	ex, err := extract.New(extract.Options{
		MaxIncludeDepth: a.cfg.Index.MaxIncludeDepth,
		CacheSize:       a.cfg.Index.ParseCacheSize,
		Logger:          a.logger,
	})
	if stderrors.Is(err, extract.ErrUnavailable) {
		return nil, errors.New(errors.ExtractorUnavailable, "this build has no C front end", err, nil)
	}
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to create extractor", err, nil)
	}
	return ex, nil
}

func (a *appContext) openStore() (*storage.DB, *storage.IndexStore, error) {
	db, err := storage.Open(a.root, a.logger)
	if err != nil {
		return nil, nil, errors.New(errors.InternalError, "failed to open database", err, nil)
	}
	return db, storage.NewIndexStore(db), nil
}

// indexPath is the --index value, else the configured path.
func (a *appContext) indexPath(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.IndexPath(a.root)
}

// loadedIndex is a usage index together with where it came from.
type loadedIndex struct {
	Index  *usage.Index
	Meta   usage.Meta
	Source string
}

// loadIndex reads a specific sqlite build when buildID is set, else the index
// file, falling back to the latest sqlite build when the file is missing.
func (a *appContext) loadIndex(path, buildID string) (*loadedIndex, error) {
	if buildID != "" {
		return a.loadBuild(buildID)
	}

	ix, meta, err := usage.ReadFile(path)
	switch {
	case err == nil:
		a.logger.Debug("Loaded index file", "path", path, "symbols", ix.SymbolCount(), "units", ix.UnitCount())
		return &loadedIndex{Index: ix, Meta: meta, Source: path}, nil
	case !stderrors.Is(err, os.ErrNotExist):
		return nil, errors.New(errors.IndexMissing, fmt.Sprintf("failed to read index %s", path), err, nil)
	}

	if !a.cfg.Index.Database {
		return nil, errors.New(errors.IndexMissing, fmt.Sprintf("no usage index at %s", path), err, nil)
	}
	a.logger.Debug("Index file missing, trying database", "path", path)
	return a.loadBuild("")
}

func (a *appContext) loadBuild(buildID string) (*loadedIndex, error) {
	db, store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	var (
		ix   *usage.Index
		meta usage.Meta
	)
	if buildID == "" {
		ix, meta, err = store.LoadLatest()
	} else {
		ix, meta, err = store.Load(buildID)
	}
	if stderrors.Is(err, storage.ErrNoBuild) {
		return nil, errors.New(errors.IndexMissing, "no usage index found", err, nil)
	}
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to load index from database", err, nil)
	}
	return &loadedIndex{Index: ix, Meta: meta, Source: "sqlite:" + meta.BuildID}, nil
}

// staleWarning compares the fingerprint recorded in meta with the compilation
// database on disk. It returns nil when they match or cannot be compared.
func (a *appContext) staleWarning(meta usage.Meta) *errors.HsError {
	if meta.CompileDB == "" || meta.Fingerprint == "" {
		return nil
	}
	current, err := compiledb.Fingerprint(meta.CompileDB)
	if err != nil {
		a.logger.Debug("Cannot fingerprint compilation database", "path", meta.CompileDB, "error", err)
		return nil
	}
	if current == meta.Fingerprint {
		return nil
	}

	warn := errors.New(errors.IndexStale,
		fmt.Sprintf("%s changed since the index was built", meta.CompileDB), nil,
		[]errors.FixAction{{
			Type:        errors.RunCommand,
			Command:     "hsplit index -c " + meta.CompileDB,
			Description: "Rebuild the usage index",
		}})
	a.logger.Warn("Usage index is stale", "compileDb", meta.CompileDB, "code", string(errors.IndexStale))
	return warn
}
