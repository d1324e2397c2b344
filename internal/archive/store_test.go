package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrack/internal/dataprocessing"
	apperrors "papertrack/internal/errors"
	"papertrack/internal/shared/testutil"
	"papertrack/pkg/contracts/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "archive.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSnapshot(t *testing.T) *domain.Snapshot {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	parser, err := dataprocessing.NewSheetParser(dataprocessing.DefaultPaperSchema(), logger)
	require.NoError(t, err)

	snap, err := dataprocessing.ReadWorkbook(context.Background(), testutil.SampleWorkbook(t, t.TempDir()), parser, logger)
	require.NoError(t, err)
	return snap
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	snap := sampleSnapshot(t)
	require.NotEmpty(t, snap.Papers)

	created, err := s.Save(context.Background(), snap)
	require.NoError(t, err)
	assert.True(t, created)

	papers, err := s.Papers(context.Background(), snap.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(snap.Papers, papers); diff != "" {
		t.Errorf("archived papers differ (-saved +restored):\n%s", diff)
	}
}

func TestStore_PreservesStatusVariants(t *testing.T) {
	s := openTestStore(t)
	snap := &domain.Snapshot{
		ID: "variants",
		Papers: []domain.Paper{
			{Serial: 1, Status: domain.CustomStatus("In Progress"), StatusRaw: "In Progress"},
			{Serial: 2, Status: domain.NewStatus(domain.StatusInProgress)},
			{Serial: 3, Status: domain.NewStatus(domain.StatusRejected), StatusRaw: "rejected twice"},
		},
	}

	_, err := s.Save(context.Background(), snap)
	require.NoError(t, err)

	papers, err := s.Papers(context.Background(), "variants")
	require.NoError(t, err)
	require.Len(t, papers, 3)

	// a custom label equal to a canonical label still restores as custom
	assert.True(t, papers[0].Status.IsCustom())
	assert.Equal(t, domain.StatusInProgress, papers[1].Status.Kind)
	assert.Equal(t, domain.StatusRejected, papers[2].Status.Kind)
	assert.Equal(t, "rejected twice", papers[2].StatusRaw)
	assert.Nil(t, papers[1].Authors)
}

func TestStore_SaveIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	snap := sampleSnapshot(t)

	created, err := s.Save(context.Background(), snap)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Save(context.Background(), snap)
	require.NoError(t, err)
	assert.False(t, created)

	infos, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, infos, 1)

	papers, err := s.Papers(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Len(t, papers, len(snap.Papers), "no duplicated rows")
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Hour)
		s.now = func() time.Time { return at }
		_, err := s.Save(context.Background(), &domain.Snapshot{
			ID:      id,
			Path:    "/data/tracker.xlsx",
			ModTime: at.Add(-time.Minute),
			Papers:  make([]domain.Paper, i),
		})
		require.NoError(t, err)
	}

	infos, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, "third", infos[0].ID)
	assert.Equal(t, 2, infos[0].PaperCount)
	assert.True(t, infos[0].ModTime.Equal(base.Add(2*time.Hour-time.Minute)))
	assert.Equal(t, "first", infos[2].ID)
}

func TestStore_EmptyList(t *testing.T) {
	s := openTestStore(t)
	infos, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, infos)
	assert.Empty(t, infos)
}

func TestStore_Errors(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Papers(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = s.Save(context.Background(), &domain.Snapshot{})
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))

	_, err = s.Save(context.Background(), nil)
	assert.Error(t, err)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "archive.db")
	snap := sampleSnapshot(t)

	s, err := Open(context.Background(), path, logger)
	require.NoError(t, err)
	_, err = s.Save(context.Background(), snap)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), path, logger)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
	infos, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, snap.ID, infos[0].ID)
	assert.Equal(t, path, s.Path())
}
