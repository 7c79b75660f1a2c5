package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <master> <expression>",
	Short: "Search a master database and print matching records as JSON",
	Long: `Evaluate a boolean expression against an ISIS master database and
print the matching records to stdout as JSON.

Example:
  isiskit search ./bases/title "Brazilian Journal"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		master, expression := args[0], args[1]

		engine, err := newEngine()
		if err != nil {
			return err
		}

		records, err := engine.GetRecords(cmd.Context(), master, expression)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
