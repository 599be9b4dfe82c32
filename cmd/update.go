package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/seftcorp/leadops/internal/fetcher"
	"github.com/seftcorp/leadops/internal/model"
)

var updateCmd = &cobra.Command{
	Use:   "update <lead-id>",
	Short: "Edit a lead's payment status, notes or share date",
	Long: `Edit operator fields on one lead. With --as-branch the edit is made on
behalf of that branch and is refused when the lead belongs to a cluster
owned by another branch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		scope, _ := cmd.Flags().GetString("as-branch")

		upd, err := leadUpdateFromFlags(cmd)
		if err != nil {
			return err
		}

		svc, st, err := initService(ctx, "resolve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return svc.UpdateLead(ctx, args[0], upd, scope)
	},
}

func leadUpdateFromFlags(cmd *cobra.Command) (model.LeadUpdate, error) {
	var upd model.LeadUpdate
	flags := cmd.Flags()

	if flags.Changed("status") {
		raw, _ := flags.GetString("status")
		st := fetcher.ParseStatus(raw)
		upd.Status = &st
	}
	if flags.Changed("notes") {
		notes, _ := flags.GetString("notes")
		upd.Notes = &notes
	}
	if flags.Changed("share-date") {
		raw, _ := flags.GetString("share-date")
		t, err := fetcher.ParseDate(raw, fetcher.LocalZone())
		if err != nil {
			return upd, eris.Wrap(err, "update: share date")
		}
		upd.ShareDate = &t
	}
	if upd.Status == nil && upd.Notes == nil && upd.ShareDate == nil {
		return upd, eris.New("update: nothing to change; pass --status, --notes or --share-date")
	}
	return upd, nil
}

func init() {
	updateCmd.Flags().String("status", "", "payment status (paid, unpaid)")
	updateCmd.Flags().String("notes", "", "operator notes")
	updateCmd.Flags().String("share-date", "", "date the lead was shared with a branch")
	updateCmd.Flags().String("as-branch", "", "edit on behalf of this branch")
	rootCmd.AddCommand(updateCmd)
}
