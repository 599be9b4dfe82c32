package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/phone"
)

// Lead sheet fields.
const (
	colID        = "id"
	colName      = "name"
	colPhone     = "phone"
	colBranch    = "branch"
	colStatus    = "status"
	colDate      = "date"
	colNotes     = "notes"
	colShareDate = "share_date"
)

// headerAliases maps normalized header text to a lead field. Exports from the
// CRM mix English and Indonesian column names.
var headerAliases = map[string]string{
	"id":             colID,
	"lead_id":        colID,
	"name":           colName,
	"nama":           colName,
	"nama_lengkap":   colName,
	"phone":          colPhone,
	"no_hp":          colPhone,
	"nohp":           colPhone,
	"whatsapp":       colPhone,
	"wa":             colPhone,
	"telepon":        colPhone,
	"raw_phone":      colPhone,
	"branch":         colBranch,
	"cabang":         colBranch,
	"branch_origin":  colBranch,
	"status":         colStatus,
	"payment_status": colStatus,
	"date":           colDate,
	"tanggal":        colDate,
	"occurred_at":    colDate,
	"created_at":     colDate,
	"notes":          colNotes,
	"catatan":        colNotes,
	"share_date":     colShareDate,
	"tanggal_share":  colShareDate,
}

var statusAliases = map[string]model.PaymentStatus{
	"paid":        model.PaymentPaid,
	"lunas":       model.PaymentPaid,
	"sudah bayar": model.PaymentPaid,
	"unpaid":      model.PaymentUnpaid,
	"belum":       model.PaymentUnpaid,
	"belum bayar": model.PaymentUnpaid,
	"":            model.PaymentUnpaid,
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2 Jan 2006",
	"2 January 2006",
}

// wib is Western Indonesia Time, used when the host has no tzdata.
var wib = time.FixedZone("WIB", 7*60*60)

// SheetOptions configures ReadLeadSheet.
type SheetOptions struct {
	// Sheet is the XLSX worksheet name; empty reads the first sheet.
	Sheet string
	// Source is stamped on every record. Defaults to the file extension.
	Source string
	// Location interprets dates without a zone. Defaults to Asia/Jakarta.
	Location *time.Location
	// Now is used for rows with a missing or unreadable date.
	Now time.Time
}

// RowProblem describes a row that was read with a substituted value.
type RowProblem struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// SheetResult is the outcome of reading one lead sheet.
type SheetResult struct {
	Leads    []model.LeadRecord
	Problems []RowProblem
	// Skipped counts blank rows.
	Skipped int
}

// ReadLeadSheet reads an .xlsx or .csv export into lead records. The first
// row is the header. Rows missing an id get a generated one, and rows with a
// missing or unreadable date get opts.Now and a RowProblem.
func ReadLeadSheet(ctx context.Context, path string, opts SheetOptions) (*SheetResult, error) {
	opts = opts.withDefaults(path)

	var rows [][]string
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		rows, err = ReadXLSX(path, XLSXOptions{SheetName: opts.Sheet})
	case ".csv", ".txt":
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		rows, err = ReadCSV(ctx, f, CSVOptions{})
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", path)
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("fetcher: %s is empty", path)
	}

	cols := mapHeader(rows[0])
	if _, ok := cols[colPhone]; !ok {
		if _, ok := cols[colName]; !ok {
			return nil, eris.Errorf("fetcher: %s has no phone or name column (header %v)", path, rows[0])
		}
	}

	res := &SheetResult{}
	seen := make(map[string]int)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blankRow(row) {
			res.Skipped++
			continue
		}
		get := func(field string) string {
			idx, ok := cols[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		rec := model.LeadRecord{
			ID:           get(colID),
			RawPhone:     get(colPhone),
			Name:         get(colName),
			BranchOrigin: get(colBranch),
			Notes:        get(colNotes),
			Source:       opts.Source,
		}
		rec.PaymentStatus = ParseStatus(get(colStatus))

		if _, ok := cols[colDate]; ok {
			raw := get(colDate)
			t, perr := ParseDate(raw, opts.Location)
			if perr != nil {
				res.Problems = append(res.Problems, RowProblem{Row: rowNum, Field: colDate, Value: raw, Reason: perr.Error()})
				t = opts.Now
			}
			rec.OccurredAt = t
		} else {
			rec.OccurredAt = opts.Now
		}

		if raw := get(colShareDate); raw != "" {
			t, perr := ParseDate(raw, opts.Location)
			if perr != nil {
				res.Problems = append(res.Problems, RowProblem{Row: rowNum, Field: colShareDate, Value: raw, Reason: perr.Error()})
			} else {
				rec.ShareDate = &t
			}
		}

		if rec.ID == "" {
			rec.ID = rowID(seen, rec, get(colDate))
		}
		res.Leads = append(res.Leads, rec)
	}

	zap.L().Info("fetcher: lead sheet read",
		zap.String("path", path),
		zap.Int("leads", len(res.Leads)),
		zap.Int("problems", len(res.Problems)),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// LocalZone is the zone CRM timestamps without an offset are written in.
func LocalZone() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		return wib
	}
	return loc
}

// rowNamespace seeds the name-based ids of rows exported without an id.
var rowNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("leadops.sheet-row"))

// rowID derives an id from the row's identity fields and raw date so a
// re-import of the same export upserts instead of inserting again. Payment
// status and notes are left out because they change between exports.
// The file type is left out so a CSV and an XLSX copy of one export agree.
// Identical rows within one sheet are told apart by their occurrence count.
func rowID(seen map[string]int, rec model.LeadRecord, rawDate string) string {
	content := strings.Join([]string{
		phone.Normalize(rec.RawPhone),
		strings.ToLower(rec.Name),
		strings.ToLower(rec.BranchOrigin),
		rawDate,
	}, "\x1f")
	n := seen[content]
	seen[content] = n + 1
	return uuid.NewSHA1(rowNamespace, []byte(content+"\x1f"+strconv.Itoa(n))).String()
}

func (o SheetOptions) withDefaults(path string) SheetOptions {
	if o.Source == "" {
		o.Source = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	if o.Location == nil {
		o.Location = LocalZone()
	}
	if o.Now.IsZero() {
		o.Now = time.Now().UTC()
	}
	return o
}

// mapHeader returns the column index of each recognized field. The first
// matching column wins.
func mapHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(key)
		field, ok := headerAliases[key]
		if !ok {
			continue
		}
		if _, dup := cols[field]; !dup {
			cols[field] = i
		}
	}
	return cols
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseStatus maps a payment status cell to a PaymentStatus. Unrecognized
// values are kept lowercased so a custom paid sentinel can still match.
func ParseStatus(raw string) model.PaymentStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if st, ok := statusAliases[s]; ok {
		return st
	}
	return model.PaymentStatus(s)
}

// ParseDate reads the date formats seen in CRM exports, plus Excel serial
// day numbers. Times without a zone are read in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, eris.New("missing date")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}
	// Excel stores dates as days since 1899-12-30.
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f >= 1 && f < 2958466 {
		t := xlsx.TimeFromExcelTime(f, false)
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc).UTC(), nil
	}
	return time.Time{}, eris.Errorf("unrecognized date %q", raw)
}
