// Package export writes duplicate and profile views to XLSX workbooks.
//
// Phone numbers are always written as text cells. Writing them as numbers is
// how scientific-notation phones got into the CRM in the first place.
package export

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/model"
)

const dateLayout = "2006-01-02 15:04"

var clusterHeader = []string{
	"Cluster Key", "Mode", "Kind", "Assigned Owner", "Branches",
	"Lead ID", "Name", "Phone", "Branch", "Branch Origin", "Status", "Occurred At", "Frozen", "Notes",
}

var profileHeader = []string{
	"Phone", "Name", "Owner Branch", "Active Branches", "First Seen", "Last Seen",
	"Total", "Paid", "Lifetime Value", "Lifecycle",
}

// WriteClusters writes one row per cluster member to path.
func WriteClusters(path string, clusters []model.ClusterView) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Duplicates")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	addHeader(sheet, clusterHeader)

	rows := 0
	for _, c := range clusters {
		for _, m := range c.Members {
			row := sheet.AddRow()
			addText(row, c.Key)
			addText(row, string(c.Mode))
			addText(row, string(c.Kind))
			addText(row, string(c.AssignedOwner))
			addText(row, joinBranches(c.Branches))
			addText(row, m.ID)
			addText(row, m.Name)
			addText(row, m.RawPhone)
			addText(row, string(m.Branch))
			addText(row, m.BranchOrigin)
			addText(row, string(m.PaymentStatus))
			addTime(row, m.OccurredAt)
			row.AddCell().SetBool(m.Frozen)
			addText(row, m.Notes)
			rows++
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	zap.L().Info("export: duplicates written",
		zap.String("path", path),
		zap.Int("clusters", len(clusters)),
		zap.Int("rows", rows),
	)
	return nil
}

// WriteProfiles writes one row per client profile to path.
func WriteProfiles(path string, profiles []model.ClientProfile) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Profiles")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	addHeader(sheet, profileHeader)

	for _, p := range profiles {
		row := sheet.AddRow()
		addText(row, p.CanonicalPhone)
		addText(row, p.DisplayName)
		addText(row, string(p.OwnerBranch))
		addText(row, joinBranches(p.BranchesActive))
		addTime(row, p.FirstSeenAt)
		addTime(row, p.LastSeenAt)
		row.AddCell().SetInt(p.TotalCount)
		row.AddCell().SetInt(p.PaidCount)
		row.AddCell().SetInt(p.LifetimeValue)
		addText(row, string(p.Status))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	zap.L().Info("export: profiles written", zap.String("path", path), zap.Int("rows", len(profiles)))
	return nil
}

func addHeader(sheet *xlsx.Sheet, cols []string) {
	row := sheet.AddRow()
	for _, c := range cols {
		addText(row, c)
	}
}

func addText(row *xlsx.Row, s string) {
	row.AddCell().SetString(s)
}

func addTime(row *xlsx.Row, t time.Time) {
	if t.IsZero() {
		addText(row, "")
		return
	}
	addText(row, t.UTC().Format(dateLayout))
}

func joinBranches(bs []model.Branch) string {
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = string(b)
	}
	return strings.Join(parts, ", ")
}
