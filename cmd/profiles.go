package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/export"
	"github.com/seftcorp/leadops/internal/model"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Build client profiles keyed by canonical phone",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		status, _ := cmd.Flags().GetString("status")
		asJSON, _ := cmd.Flags().GetBool("json")
		outPath, _ := cmd.Flags().GetString("out")

		svc, st, err := initService(ctx, "resolve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		report, err := svc.Profiles(ctx, model.LifecycleStatus(status))
		if err != nil {
			return err
		}

		if outPath != "" {
			if err := export.WriteProfiles(outPath, report.Profiles); err != nil {
				return eris.Wrap(err, "profiles: export")
			}
			zap.L().Info("profiles exported",
				zap.String("path", outPath),
				zap.Int("profiles", len(report.Profiles)),
			)
			return nil
		}

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		formatProfiles(cmd.OutOrStdout(), report.Profiles)
		return nil
	},
}

func init() {
	profilesCmd.Flags().String("status", "", "filter by lifecycle status: new, repeat, high_value")
	profilesCmd.Flags().Bool("json", false, "print the report as JSON")
	profilesCmd.Flags().String("out", "", "write an .xlsx report instead of printing")
	rootCmd.AddCommand(profilesCmd)
}
