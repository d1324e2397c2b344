package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// AuthorCells is one author triple of a work sheet row
type AuthorCells struct {
	Name   any
	Amount any
	Email  any
}

// PaperRow describes one work sheet row. Nil values leave the cell blank.
type PaperRow struct {
	Serial   any
	Title    any
	Authors  []AuthorCells
	Total    any
	Payments []any
	Paid     any
	Balance  any
	Status   any
}

// Cells lays the row out in work sheet column order
func (r PaperRow) Cells() []any {
	cells := make([]any, 27)
	cells[1] = r.Serial
	cells[2] = r.Title
	for i, a := range r.Authors {
		if i >= 5 {
			break
		}
		base := 3 + i*3
		cells[base] = a.Name
		cells[base+1] = a.Amount
		cells[base+2] = a.Email
	}
	cells[18] = r.Total
	for i, p := range r.Payments {
		if i >= 5 {
			break
		}
		cells[19+i] = p
	}
	cells[24] = r.Paid
	cells[25] = r.Balance
	cells[26] = r.Status
	return cells
}

// WorkbookBuilder assembles fixture workbooks for tests
type WorkbookBuilder struct {
	t      testing.TB
	file   *excelize.File
	sheets int
}

// NewWorkbook starts an empty fixture workbook
func NewWorkbook(t testing.TB) *WorkbookBuilder {
	t.Helper()
	return &WorkbookBuilder{t: t, file: excelize.NewFile()}
}

// WorkSheet adds a paper sheet with three header rows followed by rows
func (b *WorkbookBuilder) WorkSheet(name string, rows ...PaperRow) *WorkbookBuilder {
	b.t.Helper()

	grid := [][]any{
		{nil, "Research paper tracker"},
		{nil, name},
		{nil, "S.No", "Title", "Author 1", "Amount", "Email"},
	}
	for _, r := range rows {
		grid = append(grid, r.Cells())
	}
	return b.Sheet(name, grid)
}

// Sheet adds a sheet holding grid verbatim
func (b *WorkbookBuilder) Sheet(name string, grid [][]any) *WorkbookBuilder {
	b.t.Helper()

	if b.sheets == 0 {
		if err := b.file.SetSheetName("Sheet1", name); err != nil {
			b.t.Fatalf("rename sheet %q: %v", name, err)
		}
	} else if _, err := b.file.NewSheet(name); err != nil {
		b.t.Fatalf("create sheet %q: %v", name, err)
	}
	b.sheets++

	for r, row := range grid {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				b.t.Fatalf("cell name: %v", err)
			}
			if err := b.file.SetCellValue(name, cell, v); err != nil {
				b.t.Fatalf("set %s!%s: %v", name, cell, err)
			}
		}
	}
	return b
}

// Save writes the workbook to dir/name and returns its path
func (b *WorkbookBuilder) Save(dir, name string) string {
	b.t.Helper()

	path := filepath.Join(dir, name)
	if err := b.file.SaveAs(path); err != nil {
		b.t.Fatalf("save workbook: %v", err)
	}
	if err := b.file.Close(); err != nil {
		b.t.Fatalf("close workbook: %v", err)
	}
	return path
}

// WriteCorruptWorkbook writes bytes that are not a valid xlsx container
func WriteCorruptWorkbook(t testing.TB, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "corrupt.xlsx")
	if err := os.WriteFile(path, []byte("this is not a zip archive"), 0o644); err != nil {
		t.Fatalf("write corrupt workbook: %v", err)
	}
	return path
}

// SampleWorkbook writes a small tracker with two work sheets, a roster and a pricing sheet
func SampleWorkbook(t testing.TB, dir string) string {
	t.Helper()

	return NewWorkbook(t).
		WorkSheet("Sarathy work",
			PaperRow{
				Serial:   1,
				Title:    "Deep Learning for Crop Yield",
				Authors:  []AuthorCells{{Name: "Alice", Amount: 50000, Email: "alice@example.com"}, {Name: "Bob", Amount: "25,000"}},
				Total:    75000,
				Payments: []any{25000, 25000},
				Paid:     50000,
				Balance:  25000,
				Status:   "Published in IEEE",
			},
			PaperRow{
				Serial:  2,
				Title:   "Graph Networks in Logistics",
				Authors: []AuthorCells{{Name: " alice "}, {Name: "Can add authors"}, {Name: "Carol", Amount: "nill"}},
				Total:   "1,05,000",
				Paid:    "-",
				Balance: 105000,
				Status:  "under review",
			},
			PaperRow{Serial: nil, Title: "blank serial row"},
			PaperRow{Serial: "TBD", Title: "non numeric serial row"},
		).
		WorkSheet("Team Work",
			PaperRow{
				Serial:  "3.0",
				Title:   "Quantum Annealing Survey",
				Authors: []AuthorCells{{Name: "Dan", Amount: 30000}},
				Total:   30000,
				Paid:    30000,
				Balance: 0,
				Status:  "Awaiting editor",
			},
			PaperRow{
				Serial:  4,
				Title:   "Edge Caching Strategies",
				Authors: []AuthorCells{{Name: "not available"}},
			},
		).
		Sheet("Clients Details", [][]any{
			{"Name", "Paper", "Patent"},
			{"Alice", "Yes", ""},
			{"Dan", "Yes", "Filed"},
			{"Eve", nil, "Granted"},
		}).
		Sheet("Price Info", [][]any{
			{"Tier", "Price"},
			{"Scopus", 45000},
		}).
		Save(dir, "tracker.xlsx")
}
