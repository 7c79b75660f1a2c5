package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/scitools/isiskit/pkg/record"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <input> <master>",
	Short: "Load an ID or JSON file into a master database",
	Long: `Load records into an ISIS master database. The input is an ID file,
or a JSON record array with --json. Records append to the database by
default; --reset recreates it from the input alone. With --fst the
inverted file is regenerated after loading.

Examples:
  isiskit import title.id ./bases/title
  isiskit import title.json ./bases/title --json --reset
  isiskit import issue.id ./bases/issue --fst ./fst/issue.fst`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, master := args[0], args[1]
		reset, _ := cmd.Flags().GetBool("reset")
		fromJSON, _ := cmd.Flags().GetBool("json")
		fst, _ := cmd.Flags().GetString("fst")

		engine, err := newEngine()
		if err != nil {
			return err
		}

		idFile := input
		if fromJSON {
			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}
			var records []record.Record
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("parse %s: %w", input, err)
			}

			workDir, err := os.MkdirTemp("", "isiskit-import")
			if err != nil {
				return err
			}
			defer os.RemoveAll(workDir)

			idFile = filepath.Join(workDir, ksuid.New().String()+".id")
			if err := codec.WriteFile(idFile, records); err != nil {
				return err
			}
		}

		if reset {
			err = engine.IDFileToDatabase(cmd.Context(), idFile, master, fst)
		} else {
			err = engine.AppendIDFileToDatabase(cmd.Context(), idFile, master, fst)
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		cmd.Printf("Imported %s into %s\n", input, master)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("reset", false, "Recreate the database instead of appending")
	importCmd.Flags().Bool("json", false, "Read a JSON record array instead of an ID file")
	importCmd.Flags().String("fst", "", "FST file to regenerate the inverted file from")
}
