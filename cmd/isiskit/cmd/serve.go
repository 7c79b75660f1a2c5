package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scitools/isiskit/pkg/api"
	"github.com/scitools/isiskit/pkg/cache"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the REST facade over the master databases in the data
directory. Search results are cached until the next import into the
same database.

Examples:
  isiskit serve
  isiskit serve --port 9000 --api-key secret
  isiskit serve --data-dir ./bases --fst-dir ./fst`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
			cfg.DataDir = dataDir
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.API.Port = port
		}
		if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
			cfg.API.Bind = bind
		}
		apiKey, _ := cmd.Flags().GetString("api-key")
		fstDir, _ := cmd.Flags().GetString("fst-dir")

		engine, err := newEngine()
		if err != nil {
			return err
		}

		results, err := cache.Open(filepath.Join(cfg.DataDir, ".cache"))
		if err != nil {
			return fmt.Errorf("open result cache: %w", err)
		}
		defer results.Close()

		cmd.Printf("Starting isiskit server on %s:%d\n", cfg.API.Bind, cfg.API.Port)
		cmd.Printf("Data directory: %s\n", cfg.DataDir)

		return api.StartServer(engine, results, codec, api.ServerConfig{
			Port:    cfg.API.Port,
			Bind:    cfg.API.Bind,
			APIKey:  apiKey,
			DataDir: cfg.DataDir,
			FSTDir:  fstDir,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("data-dir", "", "Directory holding the master databases")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on")
	serveCmd.Flags().String("bind", "", "Address to bind the server to")
	serveCmd.Flags().String("api-key", "", "API key clients must present (empty disables auth)")
	serveCmd.Flags().String("fst-dir", "", "Directory with per-database FST files")
}
