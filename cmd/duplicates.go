package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/export"
	"github.com/seftcorp/leadops/internal/model"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List duplicate lead clusters by phone or name",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		mode, _ := cmd.Flags().GetString("mode")
		branchFilter, _ := cmd.Flags().GetString("branch")
		asJSON, _ := cmd.Flags().GetBool("json")
		outPath, _ := cmd.Flags().GetString("out")

		svc, st, err := initService(ctx, "resolve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		report, err := svc.Duplicates(ctx, model.ClusterMode(mode), branchFilter)
		if err != nil {
			return err
		}

		if outPath != "" {
			if err := export.WriteClusters(outPath, report.Clusters); err != nil {
				return eris.Wrap(err, "duplicates: export")
			}
			zap.L().Info("duplicates exported",
				zap.String("path", outPath),
				zap.Int("clusters", len(report.Clusters)),
			)
			return nil
		}

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		formatDuplicates(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	duplicatesCmd.Flags().String("mode", string(model.ModePhone), "cluster by phone or name")
	duplicatesCmd.Flags().String("branch", "", "only clusters with a member in this branch")
	duplicatesCmd.Flags().Bool("json", false, "print the report as JSON")
	duplicatesCmd.Flags().String("out", "", "write an .xlsx report instead of printing")
	rootCmd.AddCommand(duplicatesCmd)
}
