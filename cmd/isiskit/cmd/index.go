package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <master> <fst>",
	Short: "Regenerate a master database's inverted file",
	Long: `Rebuild the inverted (index) file of an ISIS master database from an
FST field selection table.

Example:
  isiskit index ./bases/title ./fst/title.fst`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		master, fst := args[0], args[1]

		engine, err := newEngine()
		if err != nil {
			return err
		}

		if err := engine.UpdateIndexes(cmd.Context(), master, fst); err != nil {
			return fmt.Errorf("index regeneration failed: %w", err)
		}

		cmd.Printf("Regenerated indexes of %s from %s\n", master, fst)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
