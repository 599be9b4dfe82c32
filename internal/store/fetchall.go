package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/resilience"
)

// DefaultPageSize is the number of leads requested per page.
const DefaultPageSize = 1000

// FetchAll reads every lead matching filter by walking pages of pageSize rows.
// The walk ends at the first page shorter than pageSize. Each page is retried
// on transient errors; if a page still fails, FetchAll returns the error and
// no records, because a partial snapshot would silently split clusters.
func FetchAll(ctx context.Context, src LeadLister, filter LeadFilter, pageSize int) ([]model.LeadRecord, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("store: list leads page")

	var all []model.LeadRecord
	for page := 0; ; page++ {
		f := filter
		f.Limit = pageSize
		f.Offset = page * pageSize

		rows, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]model.LeadRecord, error) {
			return src.ListLeads(ctx, f)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "store: fetch all: page %d", page)
		}
		all = append(all, rows...)

		if len(rows) < pageSize {
			zap.L().Debug("store: fetched all leads",
				zap.Int("pages", page+1),
				zap.Int("records", len(all)),
				zap.String("branch", filter.Branch),
			)
			return all, nil
		}
	}
}
