package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <envelope.json>",
	Short: "Normalize a webhook envelope from a file",
	Long: `Store a webhook envelope exactly as the webhook endpoint would. Use "-" to
read from stdin.

Examples:
  syncctl ingest review.json
  curl -s https://example.net/capture | syncctl ingest -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Normalizer.Ingest(cmd.Context(), data)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading envelope: %w", err)
	}
	return data, nil
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
