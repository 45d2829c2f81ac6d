package main

import (
	"encoding/json"
	"time"

	"whereiam/internal/globe"
	"whereiam/internal/ledger"

	"github.com/spf13/cobra"
)

var resolveLocation string

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the current location once and print the page data as JSON",
	Long: `resolve runs a single resolution against the ledger, exactly like a page
view, and prints the resolved location, the history and the globe view.
The location defaults to LOCALIZATION, --location overrides it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		key := cfg.RequestedKey()
		if cmd.Flags().Changed("location") {
			key = &resolveLocation
		}

		res, err := a.ledger.Resolve(ctx, key)
		if err != nil {
			return err
		}

		out := struct {
			ledger.Resolution
			View globe.View `json:"view"`
		}{
			Resolution: res,
			View:       globe.Build(res, time.Now()),
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveLocation, "location", "l", "", "Location to resolve, empty for home")
}
