package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/matt-grain/claude-code-kanban/internal/app"
	"github.com/matt-grain/claude-code-kanban/internal/config"
)

var (
	servePort      int
	serveHost      string
	tasksRootFlag  string
	projectsFlag   string
	teamsRootFlag  string
	watcherEnabled bool
)

// serveCmd starts the kanban server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kanban server",
	Long: `Start the kanban server: watch the task, project, and team roots
and serve the board API plus the event stream.

Example:
  kanban serve
  kanban serve --port 9000
  kanban serve --tasks-root /tmp/claude/tasks`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default: 8790)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "server host (default: 127.0.0.1)")
	serveCmd.Flags().StringVar(&tasksRootFlag, "tasks-root", "", "tasks root directory (default: ~/.claude/tasks)")
	serveCmd.Flags().StringVar(&projectsFlag, "projects-root", "", "projects root directory (default: ~/.claude/projects)")
	serveCmd.Flags().StringVar(&teamsRootFlag, "teams-root", "", "teams root directory (default: ~/.claude/teams)")
	serveCmd.Flags().BoolVar(&watcherEnabled, "watch", true, "enable filesystem watching")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with flags
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if tasksRootFlag != "" {
		cfg.Roots.Tasks = tasksRootFlag
	}
	if projectsFlag != "" {
		cfg.Roots.Projects = projectsFlag
	}
	if teamsRootFlag != "" {
		cfg.Roots.Teams = teamsRootFlag
	}
	cfg.Watcher.Enabled = watcherEnabled

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogging(cfg)

	log.Info().
		Str("version", version).
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting kanban server")

	application := app.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	cancel()
	return application.Stop(context.Background())
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "console" || verbose {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
