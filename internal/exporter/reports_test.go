package exporter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrack/internal/shared/testutil"
	"papertrack/pkg/contracts/domain"
)

func samplePapers() []domain.Paper {
	return []domain.Paper{
		{
			Serial:      3,
			Title:       "Quantum Annealing Survey",
			Authors:     []domain.Author{{Name: "Dan", Amount: 30000}},
			TotalAmount: 30000,
			TotalPaid:   30000,
			Status:      domain.CustomStatus("Awaiting editor"),
			Source:      "Team Work",
		},
		{
			Serial:      1,
			Title:       "Deep Learning, Crops",
			Authors:     []domain.Author{{Name: "Alice"}, {Name: "Bob"}},
			TotalAmount: 75000,
			TotalPaid:   50000,
			Balance:     25000,
			Status:      domain.NewStatus(domain.StatusPublished),
			Source:      "Sarathy work",
		},
	}
}

func TestPaperRecords(t *testing.T) {
	papers := samplePapers()
	records := PaperRecords(papers)

	assert.Equal(t, [][]string{
		{"1", "Deep Learning, Crops", "Alice, Bob", "2", "75000.00", "50000.00", "25000.00", "Published", "Sarathy work"},
		{"3", "Quantum Annealing Survey", "Dan", "1", "30000.00", "30000.00", "0.00", "Awaiting editor", "Team Work"},
	}, records)
	assert.Equal(t, 3, papers[0].Serial, "input order untouched")
}

func TestAuthorRecords(t *testing.T) {
	records := AuthorRecords([]domain.AuthorStat{
		{Key: "alice", Name: "Alice", Papers: 2, TotalAmount: 50000},
		{Key: "carol", Name: "Carol", Papers: 1},
	})
	assert.Equal(t, [][]string{{"Alice", "2", "50000.00"}, {"Carol", "1", "0.00"}}, records)
}

func TestSummaryRecords(t *testing.T) {
	records := SummaryRecords(domain.Summary{
		TotalPapers:    2,
		TotalAmountSum: 105000,
		CollectionRate: 76.190476,
		StatusCounts:   map[string]int{"Published": 1, "Awaiting editor": 1},
	})

	assert.Contains(t, records, []string{"Total Papers", "2"})
	assert.Contains(t, records, []string{"Collection Rate (%)", "76.19"})
	// status rows follow the headline rows in label order
	n := len(records)
	assert.Equal(t, []string{"Status: Awaiting editor", "1"}, records[n-2])
	assert.Equal(t, []string{"Status: Published", "1"}, records[n-1])
}

func TestReportExporter_WritePapers(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	exp := NewReportExporter(logger)

	var buf bytes.Buffer
	require.NoError(t, exp.WritePapers(&buf, samplePapers()))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 3)
	assert.Equal(t, PaperHeaders, records[0])
	assert.Equal(t, "1", records[1][0])
}

func TestReportExporter_ExportAll(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	exp := NewReportExporter(logger)
	dir := filepath.Join(t.TempDir(), "reports")

	paths, err := exp.ExportAll(context.Background(), dir, samplePapers(), domain.Summary{TotalPapers: 2},
		[]domain.AuthorStat{{Key: "dan", Name: "Dan", Papers: 1, TotalAmount: 30000}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, PapersFile),
		filepath.Join(dir, AuthorsFile),
		filepath.Join(dir, SummaryFile),
	}, paths)

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, [][]string{AuthorHeaders, {"Dan", "1", "30000.00"}}, readCSV(t, data))

	assert.True(t, logs.ContainsMessage("reports exported"))
	testutil.AssertNoErrors(t, logs)
}

func TestReportExporter_ExportAllCanceled(t *testing.T) {
	exp := NewReportExporter(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths, err := exp.ExportAll(ctx, t.TempDir(), nil, domain.Summary{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, paths)
}
