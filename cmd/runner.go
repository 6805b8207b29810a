package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/seethroughlab/familliar-sub003/internal/downloads"
	"github.com/seethroughlab/familliar-sub003/internal/repositories"
	"github.com/seethroughlab/familliar-sub003/internal/services"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
	"github.com/seethroughlab/familliar-sub003/internal/tasks"
	"github.com/seethroughlab/familliar-sub003/internal/transfer"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.Service
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger. The terminal UI swaps in a
// file logger before taking over the screen.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		downloadCommand, jobsCommand, serveCommand, libraryCommand, setupCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// scheduler bundles the pieces of one download pipeline: the offline
// index backing availability checks, the job registry, the dispatcher
// draining it, and the engine that expands collections into jobs.
type scheduler struct {
	db         *sql.DB
	index      *repositories.OfflineIndex
	registry   *downloads.Registry
	dispatcher *downloads.Dispatcher
	engine     *tasks.DownloadEngine
}

// Close releases the registry's subscribers and sweep timers, then the
// database handle.
func (s *scheduler) Close() {
	s.registry.Close()
	if s.db != nil {
		s.db.Close()
	}
}

// openIndex opens the configured database, runs migrations so a fresh
// install works, and wraps the handle in the offline index.
func (r *Runner) openIndex() (*sql.DB, *repositories.OfflineIndex, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	index := repositories.NewOfflineIndex(repositories.NewTrackRepository(db), repositories.NewFileRepository(db))
	return db, index, nil
}

// buildScheduler wires the full download pipeline against the
// configured library service. dir overrides the configured download
// directory when non-empty.
func (r *Runner) buildScheduler(dir string) (*scheduler, error) {
	if r.service == nil {
		return nil, fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	db, index, err := r.openIndex()
	if err != nil {
		return nil, err
	}

	if dir == "" {
		dir = r.config.Downloads.Dir
	}

	registry := downloads.NewRegistry(downloads.Options{
		RetainCompleted: time.Duration(r.config.Downloads.RetainCompletedSecs) * time.Second,
		RetainCancelled: time.Duration(r.config.Downloads.RetainCancelledSecs) * time.Second,
		Logger:          r.logger,
	})

	var tagger transfer.Tagger
	if r.config.Downloads.Tag {
		tagger = transfer.NewID3Tagger(index)
	}

	client := transfer.NewClient(r.service, index, transfer.ClientOpts{
		Dir:        dir,
		RateLimit:  r.config.Downloads.RateLimit,
		Retries:    r.config.Downloads.Retries,
		HTTPClient: r.httpClient,
		Tagger:     tagger,
		Logger:     r.logger,
	})

	return &scheduler{
		db:         db,
		index:      index,
		registry:   registry,
		dispatcher: downloads.NewDispatcher(registry, index, client, downloads.DispatcherOpts{Logger: r.logger}),
		engine:     tasks.NewDownloadEngine(r.service, index, registry, r.logger),
	}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
