package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <master> <output>",
	Short: "Export a master database to an ID or JSON file",
	Long: `Export the records of an ISIS master database. The default output is
the ID interchange format; --json writes the records as JSON instead.
With --query only the records matching the boolean expression are
exported.

Examples:
  isiskit export ./bases/title title.id
  isiskit export ./bases/title title.json --json
  isiskit export ./bases/issue recent.id --query "PY=2025"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		master, output := args[0], args[1]
		query, _ := cmd.Flags().GetString("query")
		asJSON, _ := cmd.Flags().GetBool("json")

		engine, err := newEngine()
		if err != nil {
			return err
		}

		records, err := engine.GetRecords(cmd.Context(), master, query)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if asJSON {
			data, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
		} else {
			if err := codec.WriteFile(output, records); err != nil {
				return err
			}
		}

		cmd.Printf("Exported %d records to %s\n", len(records), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("query", "", "Boolean search expression to slice the database")
	exportCmd.Flags().Bool("json", false, "Write JSON instead of the ID format")
}
