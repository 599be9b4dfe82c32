package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/store"
	"github.com/seftcorp/leadops/pkg/notion"
	sfpkg "github.com/seftcorp/leadops/pkg/salesforce"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull leads from a remote CRM into the store",
}

var syncSalesforceCmd = &cobra.Command{
	Use:   "salesforce",
	Short: "Pull Lead objects from Salesforce",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("salesforce"); err != nil {
			return err
		}
		where, _ := cmd.Flags().GetString("where")
		if where == "" {
			where = cfg.Salesforce.Where
		}

		_, st, err := initService(ctx, "resolve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		client, err := initSalesforce()
		if err != nil {
			return err
		}
		leads, err := sfpkg.FetchLeads(ctx, client, where)
		if err != nil {
			return err
		}
		return saveSynced(ctx, st, "salesforce", leads)
	},
}

var syncNotionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Pull leads from the Notion lead database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("notion"); err != nil {
			return err
		}

		_, st, err := initService(ctx, "resolve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		client := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
		leads, err := notion.FetchLeads(ctx, client, cfg.Notion.LeadDB)
		if err != nil {
			return err
		}
		return saveSynced(ctx, st, "notion", leads)
	},
}

func saveSynced(ctx context.Context, st store.Store, source string, leads []model.LeadRecord) error {
	n, err := st.UpsertLeads(ctx, leads)
	if err != nil {
		return eris.Wrapf(err, "sync %s: upsert leads", source)
	}
	zap.L().Info("sync complete",
		zap.String("source", source),
		zap.Int("fetched", len(leads)),
		zap.Int64("upserted", n),
	)
	return nil
}

func init() {
	syncSalesforceCmd.Flags().String("where", "", "SOQL WHERE clause (default: salesforce.where)")
	syncCmd.AddCommand(syncSalesforceCmd, syncNotionCmd)
	rootCmd.AddCommand(syncCmd)
}
