// Package main provides the CLI entrypoint for mysterydigits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/mysterydigits/internal/api"
	"github.com/verte-zerg/mysterydigits/internal/config"
	"github.com/verte-zerg/mysterydigits/internal/model"
	"github.com/verte-zerg/mysterydigits/internal/session"
	"github.com/verte-zerg/mysterydigits/internal/stats"
	"github.com/verte-zerg/mysterydigits/internal/tui"
)

const (
	defaultServer         = "http://localhost:5000"
	defaultDifficulty     = "easy"
	defaultTickInterval   = time.Second
	defaultHintPenalty    = 10
	defaultStreakBonus    = 10
	defaultTimeBonus      = 10
	defaultRequestTimeout = 10 * time.Second
	defaultLogLevel       = "info"
	defaultAddr           = ":5000"
	dotEnvPath            = ".env"
)

var (
	playServer         string
	playDifficulty     string
	playTickInterval   time.Duration
	playHintPenalty    int
	playStreakBonus    int
	playTimeBonus      int
	playRequestTimeout time.Duration
	playLogLevel       string

	serveAddr       string
	serveCORSOrigin string
	serveLogLevel   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mysterydigits",
		Short:         "Guess the number hidden in a noisy picture",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playServer, "server", defaultServer, "game service base URL")
	rootCmd.Flags().StringVar(&playDifficulty, "difficulty", defaultDifficulty, "initial difficulty (easy, medium, hard, expert)")
	rootCmd.Flags().DurationVar(&playTickInterval, "tick-interval", defaultTickInterval, "elapsed time refresh interval")
	rootCmd.Flags().IntVar(&playHintPenalty, "hint-penalty", defaultHintPenalty, "points deducted per hint")
	rootCmd.Flags().IntVar(&playStreakBonus, "streak-bonus", defaultStreakBonus, "bonus points per streak step")
	rootCmd.Flags().IntVar(&playTimeBonus, "time-bonus-threshold", defaultTimeBonus, "seconds under par time required for a time bonus")
	rootCmd.Flags().DurationVar(&playRequestTimeout, "request-timeout", defaultRequestTimeout, "game service request timeout (0 disables)")
	rootCmd.Flags().StringVar(&playLogLevel, "log-level", defaultLogLevel, "log level for the client log file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "server", &playServer, fileCfg.Play.Server)
	applyStringConfig(cmd, "difficulty", &playDifficulty, fileCfg.Play.Difficulty)
	applyMillisConfig(cmd, "tick-interval", &playTickInterval, fileCfg.Play.TickIntervalMS)
	applyIntConfig(cmd, "hint-penalty", &playHintPenalty, fileCfg.Play.HintPenalty)
	applyIntConfig(cmd, "streak-bonus", &playStreakBonus, fileCfg.Play.StreakBonus)
	applyIntConfig(cmd, "time-bonus-threshold", &playTimeBonus, fileCfg.Play.TimeBonusThreshold)
	applyMillisConfig(cmd, "request-timeout", &playRequestTimeout, fileCfg.Play.RequestTimeoutMS)
	applyStringConfig(cmd, "log-level", &playLogLevel, fileCfg.Play.LogLevel)

	cfg := model.PlayConfig{
		Server:         strings.TrimSpace(playServer),
		Difficulty:     model.Difficulty(strings.ToLower(strings.TrimSpace(playDifficulty))),
		RequestTimeout: playRequestTimeout,
		LogLevel:       playLogLevel,
		Game: model.GameConfig{
			TickInterval:       playTickInterval,
			HintPenalty:        playHintPenalty,
			StreakBonusRate:    playStreakBonus,
			TimeBonusThreshold: playTimeBonus,
		},
	}
	if err := validatePlayConfig(cfg); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("an interactive terminal is required (run `mysterydigits serve` for the game service)")
	}

	logger, closeLog, err := openLogFile(config.DefaultLogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := api.New(cfg.Server, api.WithTimeout(cfg.RequestTimeout), api.WithLogger(logger))
	if err != nil {
		return err
	}

	renderer := tui.NewRenderer()
	ctrl := session.New(client, renderer, cfg.Game,
		session.WithLogger(logger),
		session.WithDifficulty(cfg.Difficulty),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	logger.Info().Str("server", cfg.Server).Str("difficulty", string(cfg.Difficulty)).Msg("session started")
	program := tea.NewProgram(tui.NewModel(ctx, ctrl, renderer, client, logger), tea.WithAltScreen())
	_, runErr := program.Run()
	cancel()
	ctrl.Close()
	renderer.Close()
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}

	final := ctrl.Snapshot()
	logger.Info().Int("score", final.Score).Int("best_streak", final.BestStreak).Msg("session ended")
	return stats.RenderSummary(cmd.OutOrStdout(), final, time.Now())
}

func loadFileConfig() (config.FileConfig, error) {
	if err := config.LoadDotEnv(dotEnvPath); err != nil {
		return config.FileConfig{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return config.ApplyEnv(fileCfg), nil
}

func openLogFile(path, level string) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	return logger, func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeConfigTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeConfigTemplate creates the config file unless it already exists.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyMillisConfig(cmd *cobra.Command, name string, target *time.Duration, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = time.Duration(*value) * time.Millisecond
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# mysterydigits configuration
# Uncomment a value to enable it. Environment variables (%s, %s, %s)
# override the file; CLI flags override both.

[play]
# server = %q  # Game service base URL
# difficulty = %q  # easy, medium, hard or expert
# tick-interval-ms = %d  # Elapsed time refresh interval
# hint-penalty = %d  # Points deducted per hint
# streak-bonus = %d  # Bonus points per streak step
# time-bonus-threshold = %d  # Seconds under par time required for a time bonus
# request-timeout-ms = %d  # Game service request timeout
# log-level = %q  # Client log file level

[serve]
# addr = %q  # Listen address
# cors-origin = ""  # Allowed browser origin (empty disables CORS)
# log-level = %q
`,
		config.EnvServer,
		config.EnvAddr,
		config.EnvLogLevel,
		defaultServer,
		defaultDifficulty,
		defaultTickInterval.Milliseconds(),
		defaultHintPenalty,
		defaultStreakBonus,
		defaultTimeBonus,
		defaultRequestTimeout.Milliseconds(),
		defaultLogLevel,
		defaultAddr,
		defaultLogLevel,
	)
}

func validatePlayConfig(cfg model.PlayConfig) error {
	if cfg.Server == "" {
		return fmt.Errorf("--server must not be empty")
	}
	if _, err := model.ParseDifficulty(string(cfg.Difficulty)); err != nil {
		return fmt.Errorf("--difficulty must be one of easy, medium, hard, expert")
	}
	if cfg.Game.TickInterval <= 0 {
		return fmt.Errorf("--tick-interval must be > 0")
	}
	if cfg.Game.HintPenalty < 0 {
		return fmt.Errorf("--hint-penalty must be >= 0")
	}
	if cfg.Game.StreakBonusRate < 0 {
		return fmt.Errorf("--streak-bonus must be >= 0")
	}
	if cfg.Game.TimeBonusThreshold < 0 {
		return fmt.Errorf("--time-bonus-threshold must be >= 0")
	}
	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("--request-timeout must be >= 0")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("--log-level must be a zerolog level: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
