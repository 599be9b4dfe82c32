package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/reconcile"
)

const timeLayout = "2006-01-02 15:04"

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinBranches(bs []model.Branch) string {
	if len(bs) == 0 {
		return "-"
	}
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = string(b)
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatDuplicates prints one row per cluster member, grouped by cluster.
func formatDuplicates(out io.Writer, r *reconcile.DuplicateReport) {
	if len(r.Clusters) == 0 {
		_, _ = fmt.Fprintln(out, "No duplicates found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tKIND\tOWNER\tLEAD\tNAME\tPHONE\tBRANCH\tSTATUS\tOCCURRED\tFROZEN")
	_, _ = fmt.Fprintln(w, "---\t----\t-----\t----\t----\t-----\t------\t------\t--------\t------")
	for _, c := range r.Clusters {
		for i, m := range c.Members {
			key, kind, owner := "", "", ""
			if i == 0 {
				key, kind, owner = c.Key, string(c.Kind), orDash(string(c.AssignedOwner))
			}
			frozen := ""
			if m.Frozen {
				frozen = "yes"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				key, kind, owner,
				m.ID, orDash(m.Name), orDash(m.RawPhone), orDash(string(m.Branch)),
				m.PaymentStatus, m.OccurredAt.Format(timeLayout), frozen,
			)
		}
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%d clusters (%d cross-branch)\n", len(r.Clusters), r.CrossBranch())
}

func formatProfiles(out io.Writer, profiles []model.ClientProfile) {
	if len(profiles) == 0 {
		_, _ = fmt.Fprintln(out, "No profiles found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PHONE\tNAME\tSTATUS\tOWNER\tBRANCHES\tTOTAL\tPAID\tFIRST SEEN\tLAST SEEN")
	_, _ = fmt.Fprintln(w, "-----\t----\t------\t-----\t--------\t-----\t----\t----------\t---------")
	for _, p := range profiles {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			p.CanonicalPhone, orDash(p.DisplayName), p.Status,
			orDash(string(p.OwnerBranch)), joinBranches(p.BranchesActive),
			p.TotalCount, p.PaidCount,
			p.FirstSeenAt.Format(timeLayout), p.LastSeenAt.Format(timeLayout),
		)
	}
	_ = w.Flush()
}

func formatQuality(out io.Writer, s model.QualityStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CHECK\tCOUNT")
	_, _ = fmt.Fprintln(w, "-----\t-----")
	rows := []struct {
		label string
		n     int
	}{
		{"total", s.Total},
		{"empty phone", s.EmptyPhone},
		{"short phone", s.ShortPhone},
		{"non-canonical phone", s.NonCanonical},
		{"scientific notation", s.Scientific},
		{"empty name", s.EmptyName},
		{"unset branch", s.UnsetBranch},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", r.label, r.n)
	}
	_ = w.Flush()

	if len(s.ByBranch) == 0 {
		return
	}
	branches := make([]string, 0, len(s.ByBranch))
	for b := range s.ByBranch {
		branches = append(branches, string(b))
	}
	sort.Strings(branches)

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BRANCH\tLEADS")
	_, _ = fmt.Fprintln(w, "------\t-----")
	for _, b := range branches {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", orDash(b), s.ByBranch[model.Branch(b)])
	}
	_ = w.Flush()
}
