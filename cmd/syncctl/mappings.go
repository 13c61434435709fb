package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/channel-sync/backend/internal/app"
	"github.com/channel-sync/backend/internal/config"
	"github.com/channel-sync/backend/internal/mapping"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Inspect or clear local-to-remote id mappings",
}

type mappingEntry struct {
	Kind     mapping.Kind `json:"kind"`
	LocalID  string       `json:"local_id"`
	RemoteID string       `json:"remote_id,omitempty"`
	Found    bool         `json:"found"`
}

// withCache opens only the mapping store; the database is not needed.
func withCache(fn func(c *mapping.Cache) error) error {
	backend, err := app.OpenMappingBackend(config.Load(dataDir))
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(mapping.NewCache(backend))
}

var mappingGetCmd = &cobra.Command{
	Use:   "get <kind> [local-id]",
	Short: "Show one mapping, or every mapping of a kind",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return withCache(func(c *mapping.Cache) error {
			if len(args) == 1 {
				return printJSON(cmd.OutOrStdout(), c.All(cmd.Context(), kind))
			}
			remoteID, ok := c.Get(cmd.Context(), kind, args[1])
			return printJSON(cmd.OutOrStdout(), mappingEntry{Kind: kind, LocalID: args[1], RemoteID: remoteID, Found: ok})
		})
	},
}

var mappingClearCmd = &cobra.Command{
	Use:   "clear <kind> <local-id>",
	Short: "Forget a mapping so the next sync re-resolves it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return withCache(func(c *mapping.Cache) error {
			if _, ok := c.Get(cmd.Context(), kind, args[1]); !ok {
				return fmt.Errorf("no %s mapping for %s", kind, args[1])
			}
			c.Clear(cmd.Context(), kind, args[1])
			return printJSON(cmd.OutOrStdout(), mappingEntry{Kind: kind, LocalID: args[1]})
		})
	},
}

func init() {
	mappingCmd.AddCommand(mappingGetCmd, mappingClearCmd)
	rootCmd.AddCommand(mappingCmd)
}
