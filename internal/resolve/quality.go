package resolve

import (
	"strings"

	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/phone"
)

// Inspect counts the records that identity resolution excludes or can only
// partly use. Exclusion is never an error; it is reported here instead.
func Inspect(records []model.LeadRecord) model.QualityStats {
	stats := model.QualityStats{
		Total:    len(records),
		ByBranch: make(map[model.Branch]int),
	}
	for _, r := range records {
		switch key, ok := phone.Key(r.RawPhone); {
		case key == "":
			stats.EmptyPhone++
		case !ok:
			stats.ShortPhone++
		case !phone.IsValid(key):
			stats.NonCanonical++
		}
		if phone.IsScientific(r.RawPhone) {
			stats.Scientific++
		}
		if strings.TrimSpace(r.Name) == "" {
			stats.EmptyName++
		}
		if r.Branch == "" {
			stats.UnsetBranch++
		} else {
			stats.ByBranch[r.Branch]++
		}
	}
	return stats
}

// LogStats writes exclusion counts for a resolver pass.
func LogStats(pass string, stats model.QualityStats) {
	zap.L().Info("resolve: pass complete",
		zap.String("pass", pass),
		zap.Int("records", stats.Total),
		zap.Int("empty_phone", stats.EmptyPhone),
		zap.Int("short_phone", stats.ShortPhone),
		zap.Int("non_canonical", stats.NonCanonical),
		zap.Int("scientific", stats.Scientific),
		zap.Int("empty_name", stats.EmptyName),
		zap.Int("unset_branch", stats.UnsetBranch),
	)
}
