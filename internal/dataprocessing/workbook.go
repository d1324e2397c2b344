package dataprocessing

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	apperrors "papertrack/internal/errors"
	"papertrack/pkg/contracts/domain"
)

// Sheet selection rules
const (
	workSheetMarker    = "work"
	clientsSheetName   = "clients details"
	pricingSheetMarker = "info"
)

// IsWorkSheet reports whether a sheet holds paper rows
func IsWorkSheet(name string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(name)), workSheetMarker)
}

// IsClientsSheet reports whether a sheet is the client roster
func IsClientsSheet(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), clientsSheetName)
}

// IsPricingSheet reports whether a sheet is a pricing reference
func IsPricingSheet(name string) bool {
	return strings.Contains(strings.ToLower(name), pricingSheetMarker)
}

// EmptySnapshot is the result for a workbook that does not exist
func EmptySnapshot(path string) *domain.Snapshot {
	return &domain.Snapshot{
		ID:            uuid.New().String(),
		Path:          path,
		LoadedAt:      time.Now().UTC(),
		SourceMissing: true,
		Papers:        []domain.Paper{},
		Clients:       domain.Table{Rows: [][]string{}},
		Pricing:       domain.Table{Rows: [][]string{}},
	}
}

// ReadWorkbook parses every work sheet of the workbook at path and extracts
// the client roster and pricing tables. A missing file is not an error: the
// snapshot comes back empty with SourceMissing set. A file that exists but
// cannot be opened yields a SOURCE_UNREADABLE error.
func ReadWorkbook(ctx context.Context, path string, parser *SheetParser, logger *slog.Logger) (*domain.Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "workbook_reader"), slog.String("path", path))

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.WarnContext(ctx, "workbook not found")
		return EmptySnapshot(path), nil
	}
	if err != nil {
		return nil, apperrors.NewSourceUnreadableError(path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewSourceUnreadableError(path, err)
	}
	defer f.Close()

	snap := &domain.Snapshot{
		ID:       uuid.New().String(),
		Path:     path,
		ModTime:  info.ModTime().UTC(),
		LoadedAt: time.Now().UTC(),
		Papers:   []domain.Paper{},
		Clients:  domain.Table{Rows: [][]string{}},
		Pricing:  domain.Table{Rows: [][]string{}},
	}

	var haveClients, havePricing bool
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		work, clients, pricing := IsWorkSheet(name), !haveClients && IsClientsSheet(name), !havePricing && IsPricingSheet(name)
		if !work && !clients && !pricing {
			continue
		}

		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			logger.WarnContext(ctx, "sheet skipped",
				slog.String("sheet", name),
				slog.String("error", err.Error()))
			continue
		}

		if work {
			snap.Papers = append(snap.Papers, parser.ParseRows(name, rows)...)
		}
		if clients {
			snap.Clients = headedTable(name, rows)
			haveClients = true
		}
		if pricing {
			snap.Pricing = domain.Table{Name: name, Rows: nonNilRows(rows)}
			havePricing = true
		}
	}

	logger.InfoContext(ctx, "workbook read",
		slog.Int("papers", len(snap.Papers)),
		slog.Int("clients", snap.Clients.Len()),
		slog.Int("pricing_rows", snap.Pricing.Len()))

	return snap, nil
}

// headedTable treats the first row as the header
func headedTable(name string, rows [][]string) domain.Table {
	t := domain.Table{Name: name, Rows: [][]string{}}
	if len(rows) == 0 {
		return t
	}
	t.Header = rows[0]
	t.Rows = nonNilRows(rows[1:])
	return t
}

func nonNilRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		if r == nil {
			r = []string{}
		}
		out[i] = r
	}
	return out
}
