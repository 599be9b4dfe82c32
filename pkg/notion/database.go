package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// maxPageSize is the largest page the Notion API returns.
const maxPageSize = 100

// QueryAll follows the cursor until the database is exhausted. Any page error
// fails the whole query so callers never see a partial result.
func QueryAll(ctx context.Context, c Client, dbID string, filter notionapi.Filter) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for page := 0; ; page++ {
		req := &notionapi.DatabaseQueryRequest{
			Filter:      filter,
			StartCursor: cursor,
			PageSize:    maxPageSize,
		}
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrapf(err, "notion: query all page %d", page)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			zap.L().Debug("notion: query complete",
				zap.String("database", dbID),
				zap.Int("pages", page+1),
				zap.Int("results", len(all)),
			)
			return all, nil
		}
		cursor = resp.NextCursor
	}
}
