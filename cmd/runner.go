package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/qbx/internal/repositories"
	"github.com/desertthunder/qbx/internal/services"
	"github.com/desertthunder/qbx/internal/shared"
	"github.com/desertthunder/qbx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The catalog and the run history database are opened on first use, so commands that need neither
// (setup, help) work without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	recorder   tasks.RunRecorder
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog   // Overrides the Qobuz client built from Config
	Recorder   tasks.RunRecorder // Overrides the sqlite run history
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader // Source documents when no file is given
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		recorder:   opts.Recorder,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		playlistsCommand, favoritesCommand, setupCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies the root flags: configuration file, log destination and verbosity.
//
// A missing configuration file is not an error here; commands that reach the catalog report it.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := log.WarnLevel
	if path := cmd.String("log"); path != "" {
		logger, err := shared.NewFileLogger(path)
		if err != nil {
			return ctx, err
		}
		r.logger = logger
		level = log.InfoLevel
	}
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	r.logger.Info("qbx start", "command", cmd.Args().First())

	r.configPath = cmd.String("config")
	config, err := shared.LoadConfig(r.configPath)
	switch {
	case err == nil:
		r.config = config
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Debug("no configuration file", "path", r.configPath)
	default:
		return ctx, err
	}
	return ctx, nil
}

// After releases the run history database.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// ensureCatalog returns the catalog, logging in to Qobuz on first use.
func (r *Runner) ensureCatalog(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("%w (config file %q)", err, r.configPath)
	}

	svc, err := services.NewQobuzServiceFromConfig(ctx, r.config, r.logger, r.saveToken)
	if err != nil {
		return nil, err
	}
	r.catalog = svc
	return svc, nil
}

// saveToken persists a fresh session token so later runs skip the login.
func (r *Runner) saveToken(token string) {
	r.config.Credentials.Qobuz.UserAuthToken = token
	if r.configPath == "" {
		return
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("session token not saved", "error", err)
		return
	}
	r.logger.Info("session token saved", "path", r.configPath)
}

// ensureRecorder opens the run history. History is optional: failures are logged and yield nil.
func (r *Runner) ensureRecorder() tasks.RunRecorder {
	if r.recorder != nil || r.config.Database.Path == "" {
		return r.recorder
	}

	runs, err := r.openRuns()
	if err != nil {
		r.logger.Warn("run history unavailable", "path", r.config.Database.Path, "error", err)
		return nil
	}
	r.recorder = runs
	return r.recorder
}

// openRuns opens the run history database, applying pending migrations.
func (r *Runner) openRuns() (*repositories.RunRepository, error) {
	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, err
		}
		r.db = db
	}
	return repositories.NewRunRepository(r.db), nil
}

// reconciler builds a [tasks.Reconciler] for source, the file name or "" for stdin.
func (r *Runner) reconciler(ctx context.Context, source string) (*tasks.Reconciler, error) {
	catalog, err := r.ensureCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if source == "" {
		source = "stdin"
	}
	return tasks.NewReconciler(catalog, tasks.ReconcilerOpts{
		PageSize: r.config.API.PageSize,
		Logger:   shared.WithLogger(r.logger, "source", source),
		Recorder: r.ensureRecorder(),
		Source:   source,
	}), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "    ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
