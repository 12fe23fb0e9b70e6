package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/oneyoungman/bosuoyun/internal/config"
	"github.com/oneyoungman/bosuoyun/internal/plaso"
	"github.com/oneyoungman/bosuoyun/internal/store"
)

const (
	appName      = "bosuoyun"
	configDirEnv = "BOSUOYUN_CONFIG_DIR"
)

var (
	flagConfigDir string
	flagLogLevel  string
	flagQuiet     bool

	// appLogger and settings are populated in PersistentPreRunE.
	appLogger zerolog.Logger
	settings  *config.Settings
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Download course recordings from the Plaso learning platform",
	Long: `bosuoyun lists the course packages of a Plaso account and downloads
their chapter recordings as MP4 files using ffmpeg.

Sign in with an access token copied from the web client (see "` + appName + ` login"),
then browse courses and download chapters.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configDir, err = resolveConfigDir()
		if err != nil {
			return err
		}

		appLogger = newLogger()

		settings, err = config.NewSettings(configDir)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "directory for settings, token and history (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only log errors")
}

// Execute runs the root command. Interrupts cancel the command context so
// running downloads are killed cleanly. Exits with code 1 on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// resolveConfigDir picks the configuration directory: the flag wins, then the
// environment variable, then the per-user config directory.
func resolveConfigDir() (string, error) {
	if flagConfigDir != "" {
		return flagConfigDir, nil
	}
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// newLogger builds a console logger on stderr so command output and the
// download view keep stdout to themselves.
func newLogger() zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(flagLogLevel); err == nil {
		level = parsed
	} else {
		logger.Warn().Str("invalid_level", flagLogLevel).Msg("Invalid log level, using default 'info'")
	}
	if flagQuiet {
		level = zerolog.ErrorLevel
	}
	return logger.Level(level)
}

// requireSession loads the stored session or tells the user to log in.
func requireSession() (*store.Session, error) {
	tokens, err := store.NewTokenStore(configDir)
	if err != nil {
		return nil, err
	}
	session, err := tokens.Load()
	if err != nil {
		if errors.Is(err, store.ErrNoSession) {
			return nil, fmt.Errorf("not logged in, run %q first", appName+" login")
		}
		return nil, err
	}
	return session, nil
}

// withLoginHint turns a platform refusal of the stored token into a hint to
// log in again. Other errors pass through unchanged.
func withLoginHint(err error) error {
	if plaso.IsSessionExpired(err) {
		return fmt.Errorf("session expired, run %q again", appName+" login")
	}
	return err
}
