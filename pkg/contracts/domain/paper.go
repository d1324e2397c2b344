package domain

import (
	"strings"
	"time"
)

// MaxAuthors is the number of author slots in a work sheet row
const MaxAuthors = 5

// PaymentStages is the number of installment columns in a work sheet row
const PaymentStages = 5

// Author is one contributor to a paper
type Author struct {
	Name   string  `json:"name" db:"name" validate:"required"`
	Amount float64 `json:"amount" db:"amount"`
	Email  string  `json:"email,omitempty" db:"email"`
}

// Key returns the identity used when aggregating across papers
func (a Author) Key() string {
	return AuthorKey(a.Name)
}

// AuthorKey normalizes an author name for grouping
func AuthorKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Paper is one normalized row of a work sheet.
// TotalPaid and Balance come from their own columns and are never recomputed.
type Paper struct {
	Serial      int                    `json:"serial" db:"serial"`
	Title       string                 `json:"title" db:"title"`
	Authors     []Author               `json:"authors" validate:"max=5,dive"`
	TotalAmount float64                `json:"total_amount" db:"total_amount"`
	Payments    [PaymentStages]float64 `json:"payments"`
	TotalPaid   float64                `json:"total_paid" db:"total_paid"`
	Balance     float64                `json:"balance" db:"balance"`
	Status      Status                 `json:"status" db:"status"`
	StatusRaw   string                 `json:"status_raw" db:"status_raw"`
	Source      string                 `json:"source" db:"source"`
}

// AuthorNames joins the author names with ", "
func (p Paper) AuthorNames() string {
	names := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// NumAuthors returns the team size
func (p Paper) NumAuthors() int {
	return len(p.Authors)
}

// Table is a verbatim worksheet extraction
type Table struct {
	Name   string     `json:"name"`
	Header []string   `json:"header,omitempty"`
	Rows   [][]string `json:"rows"`
}

// Len returns the number of data rows
func (t Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of the header matching name case-insensitively, or -1
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Snapshot is the immutable result of loading one workbook version
type Snapshot struct {
	ID            string    `json:"id" db:"id"`
	Path          string    `json:"path" db:"path"`
	ModTime       time.Time `json:"mod_time" db:"mod_time"`
	LoadedAt      time.Time `json:"loaded_at" db:"loaded_at"`
	SourceMissing bool      `json:"source_missing" db:"source_missing"`
	Papers        []Paper   `json:"papers"`
	Clients       Table     `json:"clients"`
	Pricing       Table     `json:"pricing"`
}

// SnapshotInfo is the header of an archived snapshot
type SnapshotInfo struct {
	ID         string    `json:"id" db:"id"`
	Path       string    `json:"path" db:"path"`
	ModTime    time.Time `json:"mod_time" db:"mod_time"`
	LoadedAt   time.Time `json:"loaded_at" db:"loaded_at"`
	PaperCount int       `json:"paper_count" db:"paper_count"`
}

// Info returns the snapshot header
func (s *Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{
		ID:         s.ID,
		Path:       s.Path,
		ModTime:    s.ModTime,
		LoadedAt:   s.LoadedAt,
		PaperCount: len(s.Papers),
	}
}
