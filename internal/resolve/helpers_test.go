package resolve

import (
	"time"

	"github.com/seftcorp/leadops/internal/model"
)

var day0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func lead(id, rawPhone, name string, branch model.Branch, status model.PaymentStatus, day int) model.LeadRecord {
	return model.LeadRecord{
		ID:            id,
		RawPhone:      rawPhone,
		Name:          name,
		BranchOrigin:  "SEFT Corp - " + string(branch),
		Branch:        branch,
		PaymentStatus: status,
		OccurredAt:    day0.AddDate(0, 0, day),
	}
}

func memberIDs(recs []model.LeadRecord) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}
