package main

import (
	"github.com/spf13/cobra"

	"github.com/channel-sync/backend/internal/syncer"
)

var ariCmd = &cobra.Command{
	Use:   "ari",
	Short: "Push rates, restrictions and availability",
}

type ariResult struct {
	Kind    string `json:"kind"`
	LocalID string `json:"local_id"`
	Values  int    `json:"values"`
}

var ariRatesCmd = &cobra.Command{
	Use:   "rates <rate-plan-id>",
	Short: "Push a rate plan's rates and restrictions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ARI.SyncRates(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), ariResult{Kind: syncer.KindRates, LocalID: args[0], Values: n})
	},
}

var ariAvailabilityCmd = &cobra.Command{
	Use:   "availability <room-type-id>",
	Short: "Push a room type's availability",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ARI.SyncAvailability(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), ariResult{Kind: syncer.KindAvailability, LocalID: args[0], Values: n})
	},
}

func init() {
	ariCmd.AddCommand(ariRatesCmd, ariAvailabilityCmd)
	rootCmd.AddCommand(ariCmd)
}
