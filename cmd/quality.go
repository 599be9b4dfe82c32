package main

import (
	"github.com/spf13/cobra"
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Report phone, name and branch data-quality counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		asJSON, _ := cmd.Flags().GetBool("json")

		svc, st, err := initService(ctx, "resolve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := svc.Quality(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), stats)
		}
		formatQuality(cmd.OutOrStdout(), stats)
		return nil
	},
}

func init() {
	qualityCmd.Flags().Bool("json", false, "print the counts as JSON")
	rootCmd.AddCommand(qualityCmd)
}
