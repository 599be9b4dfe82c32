package notion

import (
	"context"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/model"
)

// Property names read from the leads database.
const (
	PropName   = "Name"
	PropPhone  = "Phone"
	PropBranch = "Branch"
	PropStatus = "Status"
	PropDate   = "Date"
	PropNotes  = "Notes"
)

// FetchLeads reads every page of the leads database and converts it to a
// LeadRecord. Pages without a name and phone are skipped.
func FetchLeads(ctx context.Context, c Client, dbID string) ([]model.LeadRecord, error) {
	pages, err := QueryAll(ctx, c, dbID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "notion: fetch leads")
	}

	out := make([]model.LeadRecord, 0, len(pages))
	for _, p := range pages {
		rec := PageToLead(p)
		if rec.Name == "" && rec.RawPhone == "" {
			continue
		}
		out = append(out, rec)
	}
	zap.L().Info("notion: leads fetched",
		zap.String("database", dbID),
		zap.Int("pages", len(pages)),
		zap.Int("leads", len(out)),
	)
	return out, nil
}

// PageToLead maps one database row. The Date property wins over the page's
// creation time when set.
func PageToLead(p notionapi.Page) model.LeadRecord {
	rec := model.LeadRecord{
		ID:           "notion:" + string(p.ID),
		Name:         strings.TrimSpace(propText(p.Properties[PropName])),
		RawPhone:     strings.TrimSpace(propText(p.Properties[PropPhone])),
		BranchOrigin: strings.TrimSpace(propText(p.Properties[PropBranch])),
		Notes:        propText(p.Properties[PropNotes]),
		OccurredAt:   p.CreatedTime.UTC(),
		Source:       "notion",
	}
	rec.PaymentStatus = model.PaymentStatus(strings.ToLower(strings.TrimSpace(propText(p.Properties[PropStatus]))))
	if rec.PaymentStatus == "" {
		rec.PaymentStatus = model.PaymentUnpaid
	}
	if t, ok := propDate(p.Properties[PropDate]); ok {
		rec.OccurredAt = t.UTC()
	}
	return rec
}

func propText(prop notionapi.Property) string {
	switch v := prop.(type) {
	case *notionapi.TitleProperty:
		return richText(v.Title)
	case notionapi.TitleProperty:
		return richText(v.Title)
	case *notionapi.RichTextProperty:
		return richText(v.RichText)
	case notionapi.RichTextProperty:
		return richText(v.RichText)
	case *notionapi.PhoneNumberProperty:
		return v.PhoneNumber
	case notionapi.PhoneNumberProperty:
		return v.PhoneNumber
	case *notionapi.SelectProperty:
		return v.Select.Name
	case notionapi.SelectProperty:
		return v.Select.Name
	case *notionapi.StatusProperty:
		return v.Status.Name
	case notionapi.StatusProperty:
		return v.Status.Name
	}
	return ""
}

func propDate(prop notionapi.Property) (time.Time, bool) {
	var d *notionapi.DateObject
	switch v := prop.(type) {
	case *notionapi.DateProperty:
		d = v.Date
	case notionapi.DateProperty:
		d = v.Date
	}
	if d == nil || d.Start == nil {
		return time.Time{}, false
	}
	return time.Time(*d.Start), true
}

func richText(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range parts {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}
