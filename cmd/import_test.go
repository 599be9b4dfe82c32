//go:build !integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seftcorp/leadops/internal/branch"
	"github.com/seftcorp/leadops/internal/fetcher"
	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/reconcile"
	"github.com/seftcorp/leadops/internal/store"
)

func TestImport_ReimportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	sheet := filepath.Join(dir, "leads.csv")
	require.NoError(t, os.WriteFile(sheet, []byte(
		"name,phone,branch,status,date\nAna,081234567890,SEFT Corp - Bekasi,lunas,2025-03-01\n"), 0o644))

	st, err := store.NewSQLite(filepath.Join(dir, "import.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	for i := range 2 {
		res, err := fetcher.ReadLeadSheet(ctx, sheet, fetcher.SheetOptions{Now: day0.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
		_, err = st.UpsertLeads(ctx, res.Leads)
		require.NoError(t, err)
	}

	svc := reconcile.NewService(st, branch.Default(), reconcile.Options{PaidStatus: model.PaymentPaid})

	dups, err := svc.Duplicates(ctx, model.ModePhone, "")
	require.NoError(t, err)
	assert.Empty(t, dups.Clusters)

	profiles, err := svc.Profiles(ctx, "")
	require.NoError(t, err)
	require.Len(t, profiles.Profiles, 1)
	p := profiles.Profiles[0]
	assert.Equal(t, 1, p.TotalCount)
	assert.Equal(t, 1, p.PaidCount)
	assert.Equal(t, model.LifecycleNew, p.Status)
}
