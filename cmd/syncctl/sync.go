package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/channel-sync/backend/internal/mapping"
)

var checkCmd = &cobra.Command{
	Use:   "check <kind> <local-id>",
	Short: "Resolve whether an entity exists in the channel manager",
	Long: `Run the check flow for one entity: verify the cached remote id, fall back
to a natural-key lookup, and report the resulting state.

Kinds: property, rate_plan, tax_set

Examples:
  syncctl check property 42
  syncctl check rate_plan 7`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := a.Engine.Check(cmd.Context(), kind, args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), status)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <kind> <local-id>",
	Short: "Create or update an entity in the channel manager",
	Long: `Push one entity to the channel manager, creating it when no remote
counterpart exists and updating it otherwise.

Examples:
  syncctl sync property 42
  syncctl sync tax_set 3`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := a.Engine.Sync(cmd.Context(), kind, args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), status)
	},
}

func parseKind(s string) (mapping.Kind, error) {
	kind := mapping.Kind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return kind, nil
}

func init() {
	rootCmd.AddCommand(checkCmd, syncCmd)
}
