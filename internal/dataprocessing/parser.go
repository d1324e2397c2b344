package dataprocessing

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"papertrack/pkg/contracts/domain"
)

// placeholderNames are author cells that hold no real name
var placeholderNames = map[string]bool{
	"":                true,
	"nan":             true,
	"not available":   true,
	"-":               true,
	"can add":         true,
	"can add authors": true,
}

// SheetParser converts one work sheet grid into papers
type SheetParser struct {
	schema Schema
	index  map[string]int
	logger *slog.Logger
}

// NewSheetParser validates schema and returns a parser bound to it
func NewSheetParser(schema Schema, logger *slog.Logger) (*SheetParser, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	index := make(map[string]int, len(schema.Columns))
	for _, c := range schema.Columns {
		index[c.Field] = c.Index
	}

	return &SheetParser{
		schema: schema,
		index:  index,
		logger: logger.With(slog.String("component", "sheet_parser")),
	}, nil
}

// Schema returns the layout the parser reads
func (p *SheetParser) Schema() Schema {
	return p.schema
}

// ParseRows extracts one paper per row that carries a numeric serial.
// Rows above the header offset and rows with a blank or non-numeric serial are skipped.
func (p *SheetParser) ParseRows(sheetName string, rows [][]string) []domain.Paper {
	source := strings.TrimSpace(sheetName)
	papers := make([]domain.Paper, 0, max(len(rows)-p.schema.HeaderRows, 0))

	for i := p.schema.HeaderRows; i < len(rows); i++ {
		row := rows[i]

		serial, ok := parseSerial(p.cell(row, FieldSerial))
		if !ok {
			p.logger.Debug("row skipped",
				slog.String("sheet", source),
				slog.Int("row", i),
				slog.String("serial", p.cell(row, FieldSerial)))
			continue
		}

		paper := domain.Paper{
			Serial:      serial,
			Title:       p.text(row, FieldTitle),
			Authors:     p.authors(row),
			TotalAmount: p.amount(row, FieldTotalAmount),
			TotalPaid:   p.amount(row, FieldTotalPaid),
			Balance:     p.amount(row, FieldBalance),
			StatusRaw:   p.text(row, FieldStatusRaw),
			Source:      source,
		}
		for s := 0; s < domain.PaymentStages; s++ {
			paper.Payments[s] = p.amount(row, FieldPayment(s+1))
		}
		paper.Status = ClassifyStatus(paper.StatusRaw)

		papers = append(papers, paper)
	}

	p.logger.Debug("sheet parsed",
		slog.String("sheet", source),
		slog.Int("rows", len(rows)),
		slog.Int("papers", len(papers)))

	return papers
}

func (p *SheetParser) authors(row []string) []domain.Author {
	var authors []domain.Author
	for i := 1; i <= domain.MaxAuthors; i++ {
		name := p.text(row, FieldAuthorName(i))
		if placeholderNames[strings.ToLower(name)] {
			continue
		}
		authors = append(authors, domain.Author{
			Name:   name,
			Amount: p.amount(row, FieldAuthorAmount(i)),
			Email:  p.text(row, FieldAuthorEmail(i)),
		})
	}
	return authors
}

// cell returns the raw cell for field, or "" when the row is short or the field unmapped
func (p *SheetParser) cell(row []string, field string) string {
	idx, ok := p.index[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func (p *SheetParser) text(row []string, field string) string {
	return strings.TrimSpace(p.cell(row, field))
}

func (p *SheetParser) amount(row []string, field string) float64 {
	return NormalizeAmount(p.cell(row, field))
}

// parseSerial reads the serial as a float and truncates it
func parseSerial(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
