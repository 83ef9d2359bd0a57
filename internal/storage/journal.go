package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/how-als/how-als/internal/analysis"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"
)

// Entry is one journaled analysis. Image bytes are never stored, only their digest.
type Entry struct {
	ID           int64
	At           time.Time
	Source       string
	MIMEType     string
	ByteSize     int
	ImageDigest  string
	Status       string
	ObjectName   string
	Model        string
	Duration     time.Duration
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Journal is an append-only SQLite log of analyses. It implements
// analysis.Recorder. Nothing reads it back to answer an analysis.
type Journal struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ analysis.Recorder = (*Journal)(nil)

// NewJournal opens or creates the journal database at dbPath.
func NewJournal(dbPath string) (*Journal, error) {
	// WAL and a busy timeout let the server and cmd/journal share the file.
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.init(); err != nil {
		db.Close()
		return nil, err
	}

	if err := os.Chmod(dbPath, 0600); err != nil {
		log.Debug().Err(err).Str("path", dbPath).Msg("could not restrict journal permissions")
	}

	return j, nil
}

func (j *Journal) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		source TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		byte_size INTEGER NOT NULL,
		image_digest TEXT NOT NULL,
		status TEXT NOT NULL,
		object_name TEXT,
		model TEXT,
		duration_ms INTEGER NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		cost_usd REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	`
	if _, err := j.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create analyses table: %w", err)
	}
	return nil
}

// ImageDigest returns the hex BLAKE2b-256 digest of data.
func ImageDigest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RecordAnalysis appends an outcome to the journal.
func (j *Journal) RecordAnalysis(ctx context.Context, o analysis.Outcome) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO analyses (
			created_at, source, mime_type, byte_size, image_digest, status,
			object_name, model, duration_ms, input_tokens, output_tokens, total_tokens, cost_usd
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		o.At.UTC(), o.Source, o.MIMEType, o.ByteSize, ImageDigest(o.Image), o.Status,
		nullString(o.ObjectName), nullString(o.Model), o.Duration.Milliseconds(),
		o.Usage.InputTokens, o.Usage.OutputTokens, o.Usage.TotalTokens, o.Usage.CostUSD,
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, created_at, source, mime_type, byte_size, image_digest, status,
			object_name, model, duration_ms, input_tokens, output_tokens, total_tokens, cost_usd
		FROM analyses
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var objectName, model sql.NullString
		var durationMs int64
		if err := rows.Scan(
			&e.ID, &e.At, &e.Source, &e.MIMEType, &e.ByteSize, &e.ImageDigest, &e.Status,
			&objectName, &model, &durationMs, &e.InputTokens, &e.OutputTokens, &e.TotalTokens, &e.CostUSD,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.ObjectName = objectName.String
		e.Model = model.String
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// StatusCounts returns how many analyses ended in each status.
func (j *Journal) StatusCounts(ctx context.Context) (map[string]int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM analyses GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
