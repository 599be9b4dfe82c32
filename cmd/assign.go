package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/model"
)

var assignCmd = &cobra.Command{
	Use:   "assign <duplicate-key>",
	Short: "Pin a duplicate cluster to an owner branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mode, _ := cmd.Flags().GetString("mode")
		branchLabel, _ := cmd.Flags().GetString("branch")

		svc, st, err := initService(ctx, "resolve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		a, err := svc.SetOwner(ctx, args[0], model.ClusterMode(mode), branchLabel)
		if err != nil {
			return err
		}

		zap.L().Info("owner assigned",
			zap.String("key", a.DuplicateKey),
			zap.String("mode", string(a.DuplicateMode)),
			zap.String("branch", string(a.AssignedBranch)),
		)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) -> %s\n", a.DuplicateKey, a.DuplicateMode, a.AssignedBranch)
		return nil
	},
}

var unassignCmd = &cobra.Command{
	Use:   "unassign <duplicate-key>",
	Short: "Remove the owner branch from a duplicate cluster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mode, _ := cmd.Flags().GetString("mode")

		svc, st, err := initService(ctx, "resolve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := svc.ClearOwner(ctx, args[0], model.ClusterMode(mode)); err != nil {
			return err
		}
		zap.L().Info("owner cleared", zap.String("key", args[0]), zap.String("mode", mode))
		return nil
	},
}

func init() {
	assignCmd.Flags().String("branch", "", "owner branch label (required)")
	assignCmd.Flags().String("mode", string(model.ModePhone), "cluster mode of the key: phone or name")
	_ = assignCmd.MarkFlagRequired("branch")

	unassignCmd.Flags().String("mode", string(model.ModePhone), "cluster mode of the key: phone or name")

	rootCmd.AddCommand(assignCmd, unassignCmd)
}
