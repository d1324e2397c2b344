package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	apperrors "papertrack/internal/errors"
	"papertrack/pkg/contracts"
	"papertrack/pkg/contracts/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id             TEXT PRIMARY KEY,
	path           TEXT NOT NULL,
	mod_time       INTEGER NOT NULL,
	loaded_at      INTEGER NOT NULL,
	archived_at    INTEGER NOT NULL,
	paper_count    INTEGER NOT NULL,
	schema_version INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_archived_at ON snapshots(archived_at);

CREATE TABLE IF NOT EXISTS papers (
	snapshot_id   TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	serial        INTEGER NOT NULL,
	title         TEXT NOT NULL,
	total_amount  REAL NOT NULL,
	payment_1     REAL NOT NULL,
	payment_2     REAL NOT NULL,
	payment_3     REAL NOT NULL,
	payment_4     REAL NOT NULL,
	payment_5     REAL NOT NULL,
	total_paid    REAL NOT NULL,
	balance       REAL NOT NULL,
	status_kind   INTEGER NOT NULL,
	status_custom TEXT NOT NULL,
	status_raw    TEXT NOT NULL,
	source        TEXT NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);

CREATE TABLE IF NOT EXISTS authors (
	snapshot_id    TEXT NOT NULL,
	paper_position INTEGER NOT NULL,
	slot           INTEGER NOT NULL,
	name           TEXT NOT NULL,
	amount         REAL NOT NULL,
	email          TEXT NOT NULL,
	PRIMARY KEY (snapshot_id, paper_position, slot),
	FOREIGN KEY (snapshot_id, paper_position) REFERENCES papers(snapshot_id, position) ON DELETE CASCADE
);
`

// Store archives workbook snapshots in a SQLite database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// Open opens or creates the archive at path and applies the schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.NewStorageError("failed to create archive directory", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open archive", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY between our own goroutines
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to migrate archive schema", err)
	}

	s := &Store{
		db:     db,
		path:   path,
		logger: logger.With(slog.String("component", "archive")),
		now:    time.Now,
	}
	s.logger.DebugContext(ctx, "archive opened", slog.String("path", path))
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save writes the snapshot in a single transaction. Saving a snapshot ID
// that is already archived is a no-op and reports created=false.
func (s *Store) Save(ctx context.Context, snap *domain.Snapshot) (created bool, err error) {
	if snap == nil || snap.ID == "" {
		return false, apperrors.NewAppValidationError("snapshot id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, path, mod_time, loaded_at, archived_at, paper_count, schema_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		snap.ID, snap.Path, snap.ModTime.UnixNano(), snap.LoadedAt.UnixNano(), s.now().UnixNano(),
		len(snap.Papers), contracts.SnapshotSchemaVersion)
	if err != nil {
		return false, apperrors.NewStorageError("failed to insert snapshot", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		s.logger.DebugContext(ctx, "snapshot already archived", slog.String("snapshot_id", snap.ID))
		return false, nil
	}

	if err = insertPapers(ctx, tx, snap); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, apperrors.NewStorageError("failed to commit snapshot", err)
	}

	s.logger.InfoContext(ctx, "snapshot archived",
		slog.String("snapshot_id", snap.ID),
		slog.Int("papers", len(snap.Papers)))
	return true, nil
}

func insertPapers(ctx context.Context, tx *sql.Tx, snap *domain.Snapshot) error {
	paperStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (snapshot_id, position, serial, title, total_amount,
			payment_1, payment_2, payment_3, payment_4, payment_5,
			total_paid, balance, status_kind, status_custom, status_raw, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.NewStorageError("failed to prepare paper insert", err)
	}
	defer paperStmt.Close()

	authorStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO authors (snapshot_id, paper_position, slot, name, amount, email)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.NewStorageError("failed to prepare author insert", err)
	}
	defer authorStmt.Close()

	for pos, p := range snap.Papers {
		if _, err := paperStmt.ExecContext(ctx,
			snap.ID, pos, p.Serial, p.Title, p.TotalAmount,
			p.Payments[0], p.Payments[1], p.Payments[2], p.Payments[3], p.Payments[4],
			p.TotalPaid, p.Balance, int(p.Status.Kind), p.Status.Raw, p.StatusRaw, p.Source,
		); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to insert paper %d", p.Serial), err)
		}

		for slot, a := range p.Authors {
			if _, err := authorStmt.ExecContext(ctx, snap.ID, pos, slot, a.Name, a.Amount, a.Email); err != nil {
				return apperrors.NewStorageError(fmt.Sprintf("failed to insert author of paper %d", p.Serial), err)
			}
		}
	}
	return nil
}

// List returns archived snapshot headers, newest first.
func (s *Store) List(ctx context.Context) ([]domain.SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, mod_time, loaded_at, paper_count
		 FROM snapshots ORDER BY archived_at DESC, id`)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list snapshots", err)
	}
	defer rows.Close()

	infos := []domain.SnapshotInfo{}
	for rows.Next() {
		var (
			info            domain.SnapshotInfo
			modTime, loaded int64
		)
		if err := rows.Scan(&info.ID, &info.Path, &modTime, &loaded, &info.PaperCount); err != nil {
			return nil, apperrors.NewStorageError("failed to scan snapshot", err)
		}
		info.ModTime = time.Unix(0, modTime)
		info.LoadedAt = time.Unix(0, loaded)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to list snapshots", err)
	}
	return infos, nil
}

// Papers returns the papers of an archived snapshot in their original order.
func (s *Store) Papers(ctx context.Context, snapshotID string) ([]domain.Paper, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT paper_count FROM snapshots WHERE id = ?`, snapshotID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("snapshot " + snapshotID)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read snapshot", err)
	}

	papers := make([]domain.Paper, 0, count)
	rows, err := s.db.QueryContext(ctx,
		`SELECT serial, title, total_amount, payment_1, payment_2, payment_3, payment_4, payment_5,
			total_paid, balance, status_kind, status_custom, status_raw, source
		 FROM papers WHERE snapshot_id = ? ORDER BY position`, snapshotID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read papers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p    domain.Paper
			kind int
		)
		if err := rows.Scan(&p.Serial, &p.Title, &p.TotalAmount,
			&p.Payments[0], &p.Payments[1], &p.Payments[2], &p.Payments[3], &p.Payments[4],
			&p.TotalPaid, &p.Balance, &kind, &p.Status.Raw, &p.StatusRaw, &p.Source,
		); err != nil {
			return nil, apperrors.NewStorageError("failed to scan paper", err)
		}
		p.Status.Kind = domain.StatusKind(kind)
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to read papers", err)
	}

	if err := s.attachAuthors(ctx, snapshotID, papers); err != nil {
		return nil, err
	}
	return papers, nil
}

func (s *Store) attachAuthors(ctx context.Context, snapshotID string, papers []domain.Paper) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_position, name, amount, email
		 FROM authors WHERE snapshot_id = ? ORDER BY paper_position, slot`, snapshotID)
	if err != nil {
		return apperrors.NewStorageError("failed to read authors", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pos int
			a   domain.Author
		)
		if err := rows.Scan(&pos, &a.Name, &a.Amount, &a.Email); err != nil {
			return apperrors.NewStorageError("failed to scan author", err)
		}
		if pos < 0 || pos >= len(papers) {
			return apperrors.NewStorageError(fmt.Sprintf("author references missing paper position %d", pos), nil)
		}
		papers[pos].Authors = append(papers[pos].Authors, a)
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewStorageError("failed to read authors", err)
	}
	return nil
}
