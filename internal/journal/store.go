package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/ismaiel54/trade-ticket/internal/order"
)

// Store is the local attempt journal. It keeps one row per submission
// attempt keyed by request id, so the idempotency key survives a process
// restart mid-attempt, and successful receipts land in an outbox for
// best-effort publishing.
type Store struct {
	db *sql.DB
}

// Attempt outcomes recorded in the journal.
const (
	OutcomeInFlight  = "IN_FLIGHT"
	OutcomeSucceeded = "SUCCEEDED"
	OutcomeFailed    = "FAILED"
)

// OutboxEvent is a receipt waiting to be published.
type OutboxEvent struct {
	ID                  int64
	RequestID           string
	JournalID           string
	Topic               string
	Key                 string
	PayloadJSON         string
	CreatedUnixMillis   int64
	PublishedUnixMillis sql.NullInt64
}

// Open creates or opens the journal database
func Open(path string) (*Store, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate creates the necessary tables
func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			request_id TEXT PRIMARY KEY,
			side TEXT NOT NULL,
			symbol TEXT NOT NULL,
			quantity TEXT NOT NULL,
			submitted_unix_millis INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			receipt_json TEXT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			journal_id TEXT NOT NULL,
			topic TEXT NOT NULL,
			key TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_unix_millis INTEGER NOT NULL,
			published_unix_millis INTEGER NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
			ON outbox_events(published_unix_millis)
			WHERE published_unix_millis IS NULL`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// RecordAttempt journals the start of a submission attempt. Re-recording
// the same request id (a retry of the same logical attempt) keeps the
// original row.
func (s *Store) RecordAttempt(ctx context.Context, o order.OrderRequest, nowMillis int64) error {
	symbol := o.Symbol
	if o.IsConvert() {
		symbol = o.FromAsset + "->" + o.ToAsset
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO attempts (request_id, side, symbol, quantity, submitted_unix_millis, outcome)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.RequestID, string(o.Side), symbol, o.Quantity.String(), nowMillis, OutcomeInFlight,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// LookupReceipt returns the journaled receipt for a request id, if the
// attempt already succeeded. Used to collapse a duplicate submission of
// the same attempt without a network call.
func (s *Store) LookupReceipt(ctx context.Context, requestID string) (order.TradeReceipt, bool, error) {
	var receiptJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT receipt_json FROM attempts WHERE request_id = ? AND outcome = ?",
		requestID, OutcomeSucceeded,
	).Scan(&receiptJSON)
	if err == sql.ErrNoRows {
		return order.TradeReceipt{}, false, nil
	}
	if err != nil {
		return order.TradeReceipt{}, false, fmt.Errorf("failed to look up receipt: %w", err)
	}
	if !receiptJSON.Valid {
		return order.TradeReceipt{}, false, nil
	}

	var receipt order.TradeReceipt
	if err := json.Unmarshal([]byte(receiptJSON.String), &receipt); err != nil {
		return order.TradeReceipt{}, false, fmt.Errorf("failed to decode journaled receipt: %w", err)
	}
	return receipt, true, nil
}

// RecordReceipt marks the attempt succeeded and, when topic is non-empty,
// enqueues the receipt in the outbox, atomically.
func (s *Store) RecordReceipt(ctx context.Context, receipt order.TradeReceipt, topic string, nowMillis int64) error {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"UPDATE attempts SET outcome = ?, receipt_json = ? WHERE request_id = ?",
		OutcomeSucceeded, string(payload), receipt.RequestID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}

	if topic != "" {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO outbox_events (request_id, journal_id, topic, key, payload_json, created_unix_millis, published_unix_millis)
			 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
			receipt.RequestID, receipt.JournalID, topic, receipt.Symbol, string(payload), nowMillis,
		)
		if err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecordFailure marks the attempt failed with a short detail string.
func (s *Store) RecordFailure(ctx context.Context, requestID, detail string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE attempts SET outcome = ?, detail = ? WHERE request_id = ?",
		OutcomeFailed, detail, requestID,
	)
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return nil
}

// ListUnpublished returns unpublished outbox events
func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, journal_id, topic, key, payload_json, created_unix_millis, published_unix_millis
		 FROM outbox_events
		 WHERE published_unix_millis IS NULL
		 ORDER BY created_unix_millis ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpublished events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		err := rows.Scan(
			&e.ID, &e.RequestID, &e.JournalID, &e.Topic, &e.Key,
			&e.PayloadJSON, &e.CreatedUnixMillis, &e.PublishedUnixMillis,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// MarkPublished marks an outbox event as published
func (s *Store) MarkPublished(ctx context.Context, id int64, nowMillis int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE outbox_events SET published_unix_millis = ? WHERE id = ?",
		nowMillis, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
