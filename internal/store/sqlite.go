package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/hr-console/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection keeps ":memory:" databases shared and serializes
	// writes from concurrent commands.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// notificationRow is the database shape of a notification.
type notificationRow struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	Message   string    `db:"message"`
	DedupeKey string    `db:"dedupe_key"`
	Entity    string    `db:"entity"`
	Operation string    `db:"operation"`
	Read      int       `db:"read"`
	EmittedAt time.Time `db:"emitted_at"`
}

func (r notificationRow) toModel() model.NotificationEvent {
	return model.NotificationEvent{
		ID:        r.ID,
		Kind:      model.NotificationKind(r.Kind),
		Message:   r.Message,
		DedupeKey: r.DedupeKey,
		Entity:    model.Entity(r.Entity),
		Operation: model.Operation(r.Operation),
		Read:      r.Read != 0,
		EmittedAt: r.EmittedAt,
	}
}

// CreateNotification inserts a notification. A missing ID or timestamp is
// filled in.
func (s *SQLiteStore) CreateNotification(
	ctx context.Context,
	n model.NotificationEvent,
) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.EmittedAt.IsZero() {
		n.EmittedAt = time.Now()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO notifications (
			id, kind, message, dedupe_key, entity, operation, read, emitted_at
		) VALUES (
			:id, :kind, :message, :dedupe_key, :entity, :operation, :read, :emitted_at
		)`,
		notificationRow{
			ID:        n.ID,
			Kind:      string(n.Kind),
			Message:   n.Message,
			DedupeKey: n.DedupeKey,
			Entity:    string(n.Entity),
			Operation: string(n.Operation),
			Read:      boolToInt(n.Read),
			EmittedAt: n.EmittedAt.UTC(),
		},
	)
	if err != nil {
		return fmt.Errorf("inserting notification %s: %w", n.ID, err)
	}
	return nil
}

// GetNotifications returns history entries, newest first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
	filter NotificationFilter,
) ([]model.NotificationEvent, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter.Kind != nil {
		where = append(where, "kind = ?")
		args = append(args, string(*filter.Kind))
	}

	query := `SELECT id, kind, message, dedupe_key, entity, operation, read, emitted_at
		FROM notifications`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY emitted_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	out := make([]model.NotificationEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// GetUnreadCount returns the number of unread notifications.
func (s *SQLiteStore) GetUnreadCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM notifications WHERE read = 0"); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkAllNotificationsRead marks every notification as read.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE read = 0"); err != nil {
		return fmt.Errorf("marking notifications as read: %w", err)
	}
	return nil
}

// PruneNotifications deletes all but the newest keep entries.
func (s *SQLiteStore) PruneNotifications(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE id NOT IN (
			SELECT id FROM notifications ORDER BY emitted_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("pruning notifications: %w", err)
	}
	return nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
