package salesforce

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/model"
)

// Lead is a Salesforce Lead row. Branch__c and Payment_Status__c are custom
// fields on the SEFT org.
type Lead struct {
	ID            string `json:"Id" salesforce:"Id"`
	Name          string `json:"Name" salesforce:"Name"`
	Phone         string `json:"Phone" salesforce:"Phone"`
	MobilePhone   string `json:"MobilePhone" salesforce:"MobilePhone"`
	Branch        string `json:"Branch__c" salesforce:"Branch__c"`
	PaymentStatus string `json:"Payment_Status__c" salesforce:"Payment_Status__c"`
	Description   string `json:"Description" salesforce:"Description"`
	CreatedDate   string `json:"CreatedDate" salesforce:"CreatedDate"`
}

// leadFields are the SOQL fields selected for Lead queries.
var leadFields = []string{
	"Id", "Name", "Phone", "MobilePhone", "Branch__c",
	"Payment_Status__c", "Description", "CreatedDate",
}

// sfTimeLayout is the timestamp format of the REST API.
const sfTimeLayout = "2006-01-02T15:04:05.000-0700"

// LeadQuery builds the SOQL for FetchLeads. where is appended verbatim after
// WHERE; callers pass literals through Quote.
func LeadQuery(where string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(leadFields, ", "))
	b.WriteString(" FROM Lead")
	if w := strings.TrimSpace(where); w != "" {
		b.WriteString(" WHERE ")
		b.WriteString(w)
	}
	b.WriteString(" ORDER BY CreatedDate, Id")
	return b.String()
}

// Quote returns s as a SOQL string literal.
func Quote(s string) string {
	return "'" + escapeSoql(s) + "'"
}

// FetchLeads queries every Lead matching where and converts it to a LeadRecord.
// go-salesforce follows nextRecordsUrl, so one call returns the full set.
func FetchLeads(ctx context.Context, c Client, where string) ([]model.LeadRecord, error) {
	var rows []Lead
	if err := c.Query(ctx, LeadQuery(where), &rows); err != nil {
		return nil, eris.Wrap(err, "sf: fetch leads")
	}

	out := make([]model.LeadRecord, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		rec, ok := r.toRecord()
		if !ok {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	zap.L().Info("sf: leads fetched", zap.Int("leads", len(out)), zap.Int("skipped", skipped))
	return out, nil
}

func (l Lead) toRecord() (model.LeadRecord, bool) {
	if l.ID == "" {
		return model.LeadRecord{}, false
	}
	phone := l.Phone
	if strings.TrimSpace(phone) == "" {
		phone = l.MobilePhone
	}
	rec := model.LeadRecord{
		ID:            "sf:" + l.ID,
		RawPhone:      strings.TrimSpace(phone),
		Name:          strings.TrimSpace(l.Name),
		BranchOrigin:  strings.TrimSpace(l.Branch),
		PaymentStatus: model.PaymentStatus(strings.ToLower(strings.TrimSpace(l.PaymentStatus))),
		Notes:         l.Description,
		Source:        "salesforce",
	}
	if rec.PaymentStatus == "" {
		rec.PaymentStatus = model.PaymentUnpaid
	}
	if t, err := time.Parse(sfTimeLayout, l.CreatedDate); err == nil {
		rec.OccurredAt = t.UTC()
	} else if t, err := time.Parse(time.RFC3339, l.CreatedDate); err == nil {
		rec.OccurredAt = t.UTC()
	}
	return rec, true
}

// escapeSoql escapes backslashes and single quotes in SOQL string literals.
func escapeSoql(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
