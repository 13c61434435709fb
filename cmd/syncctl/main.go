// Command syncctl is the operator CLI for the channel sync service.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/channel-sync/backend/internal/app"
	"github.com/channel-sync/backend/internal/config"
	"github.com/channel-sync/backend/internal/syncer"
	"github.com/channel-sync/backend/internal/webhook"
)

var dataDir string

var rootCmd = &cobra.Command{
	Use:   "syncctl",
	Short: "Operate the channel-manager sync engine",
	Long: `syncctl runs sync operations against the channel manager from the command line.

It uses the same configuration (.env and environment) as the server. Output is
indented JSON on stdout; failures exit non-zero with their error class.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errorClass(err), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default $DATA_DIR or ./data)")
}

// openApp wires the full service without notifications.
func openApp() (*app.App, error) {
	return app.New(config.Load(dataDir), app.Options{})
}

// errorClass renders the failure class an operator acts on.
func errorClass(err error) string {
	if errors.Is(err, webhook.ErrInvalidEnvelope) {
		return "invalid_envelope"
	}
	if class := syncer.Classify(err); class != syncer.ClassNone {
		return string(class)
	}
	return "error"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
