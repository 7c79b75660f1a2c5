package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/scitools/isiskit/pkg/charset"
	"github.com/scitools/isiskit/pkg/cisis"
	"github.com/scitools/isiskit/pkg/config"
	"github.com/scitools/isiskit/pkg/idfile"
)

var (
	cfg   *config.Config
	codec *idfile.Codec
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "isiskit",
	Short: "isiskit - ID-format codec and CISIS master database tooling",
	Long: `isiskit moves records between ISIS master databases and the ID text
interchange format, driving the CISIS command-line utilities for the
database side and a faithful ID codec for the text side.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		if config.ConfigExists(configPath) {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
		} else {
			cfg = config.DefaultConfig()
		}

		if name, _ := cmd.Flags().GetString("charset"); name != "" {
			cfg.Charset = name
		}

		level, err := logrus.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
		}
		logrus.SetLevel(level)

		cs, err := charset.Lookup(cfg.Charset)
		if err != nil {
			return err
		}
		codec = idfile.NewCodec(cs)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().String("charset", "", "Override the configured legacy charset (IANA name)")
}

// newEngine builds the CISIS engine from the loaded configuration.
func newEngine() (*cisis.Engine, error) {
	return cisis.NewEngine(cfg.Engine.Cisis1030Path, cfg.Engine.Cisis1660Path, codec)
}
