package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"

	"github.com/seftcorp/leadops/internal/branch"
	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/reconcile"
	"github.com/seftcorp/leadops/internal/resilience"
	"github.com/seftcorp/leadops/internal/store"
	sfpkg "github.com/seftcorp/leadops/pkg/salesforce"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initBranches() (*branch.Table, error) {
	if cfg.Branches.File == "" {
		return branch.Default(), nil
	}
	return branch.Load(cfg.Branches.File)
}

// initService opens and migrates the store and wires the reconcile service.
// The caller must close the returned store.
func initService(ctx context.Context, mode string) (*reconcile.Service, store.Store, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, nil, err
	}
	branches, err := initBranches()
	if err != nil {
		return nil, nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("store: migrate")
	if err := resilience.Do(ctx, retry, st.Migrate); err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}
	svc := reconcile.NewService(st, branches, reconcile.Options{
		PageSize:   cfg.Resolver.PageSize,
		PaidStatus: model.PaymentStatus(cfg.Resolver.PaidStatus),
	})
	return svc, st, nil
}

func initSalesforce() (sfpkg.Client, error) {
	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}
	return sfpkg.Connect(sfpkg.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	}, sfpkg.WithRateLimit(cfg.Salesforce.RateLimit))
}
