// Package branch maps free-text branch labels onto logical branches.
package branch

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/seftcorp/leadops/internal/model"
)

// ErrUnknownBranch is returned when an operator names a branch the table does not know.
var ErrUnknownBranch = eris.New("branch: unknown branch")

// Entry maps a logical branch to the city tokens that identify it in raw labels.
type Entry struct {
	Label  model.Branch `yaml:"label"`
	Tokens []string     `yaml:"tokens"`
}

// Table resolves raw labels like "SEFT Corp - Bekasi" to logical branches.
// Entries are checked in order; the first entry with a matching token wins.
type Table struct {
	entries []Entry
}

// Default returns the built-in SEFT Corp branch table.
func Default() *Table {
	return New([]Entry{
		{Label: "Bekasi", Tokens: []string{"bekasi"}},
		{Label: "Jogja", Tokens: []string{"jogja", "yogya", "jogjakarta", "yogyakarta"}},
	})
}

// New builds a table from entries. Tokens are matched case-insensitively.
// An entry's own label always counts as one of its tokens.
func New(entries []Entry) *Table {
	t := &Table{entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		label := model.Branch(strings.TrimSpace(string(e.Label)))
		if label == "" {
			continue
		}
		tokens := []string{strings.ToLower(string(label))}
		for _, tok := range e.Tokens {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok != "" {
				tokens = append(tokens, tok)
			}
		}
		t.entries = append(t.entries, Entry{Label: label, Tokens: tokens})
	}
	return t
}

type tableFile struct {
	Branches []Entry `yaml:"branches"`
}

// Load reads a branch table from a YAML file of the form:
//
//	branches:
//	  - label: Bekasi
//	    tokens: [bekasi]
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "branch: read %s", path)
	}
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "branch: parse %s", path)
	}
	if len(f.Branches) == 0 {
		return nil, eris.Errorf("branch: %s defines no branches", path)
	}
	return New(f.Branches), nil
}

// Labels returns the known logical branches in table order.
func (t *Table) Labels() []model.Branch {
	out := make([]model.Branch, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Label
	}
	return out
}

// Resolve maps a raw label to its logical branch. Blank labels resolve to "".
// Labels with no known token resolve to their trimmed text, so two unknown
// labels only match when they are spelled the same.
func (t *Table) Resolve(raw string) model.Branch {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if b, ok := t.lookup(raw); ok {
		return b
	}
	return model.Branch(raw)
}

// Known reports whether raw resolves to a branch in the table.
func (t *Table) Known(raw string) bool {
	_, ok := t.lookup(strings.TrimSpace(raw))
	return ok
}

// Canonical validates an operator-supplied owner branch and returns its short label.
func (t *Table) Canonical(raw string) (model.Branch, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", eris.Wrap(ErrUnknownBranch, "empty branch")
	}
	b, ok := t.lookup(raw)
	if !ok {
		return "", eris.Wrapf(ErrUnknownBranch, "%q", raw)
	}
	return b, nil
}

// Apply fills Branch on every record from its BranchOrigin.
func (t *Table) Apply(records []model.LeadRecord) {
	for i := range records {
		records[i].Branch = t.Resolve(records[i].BranchOrigin)
	}
}

func (t *Table) lookup(raw string) (model.Branch, bool) {
	if raw == "" {
		return "", false
	}
	lower := strings.ToLower(raw)
	for _, e := range t.entries {
		for _, tok := range e.Tokens {
			if strings.Contains(lower, tok) {
				return e.Label, true
			}
		}
	}
	return "", false
}
