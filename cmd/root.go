package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/ledgerloom/internal/config"
	"github.com/KaramelBytes/ledgerloom/internal/logging"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Overrides for config keys
	flagLogLevel     string
	flagLogFormat    string
	flagCacheBackend string
	flagCacheDir     string

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ledgerloom",
	Short: "LedgerLoom: normalize sales exports and run lightweight revenue analytics",
	Long: `LedgerLoom maps arbitrarily named sales and payment exports onto one schema,
then forecasts revenue, flags unusual days and segments customers with small
models cached per dataset shape.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd.Root().PersistentFlags())
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.ledgerloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: console|json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagCacheBackend, "cache-backend", "", "model cache: memory|file|sqlite|badger (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "model cache directory (overrides config)")
}

func loadConfig(f *pflag.FlagSet) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c

	// Apply CLI overrides if provided
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if f.Changed("cache-backend") {
		cfg.CacheBackend = flagCacheBackend
	}
	if f.Changed("cache-dir") {
		cfg.CacheDir = flagCacheDir
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger = logging.New(cfg.LogLevel, cfg.LogFormat)
	return nil
}
