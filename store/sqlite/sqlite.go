/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements vacation.Store and vacation.UserDirectory using SQLite. In
  production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  users:            User directory for existence/name lookups
  policies:         Vacation policy definitions
  grants:           Ledger credits with grant/expiry windows
  usages:           User consumption events
  usage_deductions: Junction rows tying usages to the grants they drew from
  grant_requests:   Pending-grant records for the approval workflow
  approvals:        One row per approver slot
  enrollments:      Per user-policy issuance cursors for repeat policies

SOFT DELETION:
  No DELETE statements on domain tables. Records carry a deleted flag;
  partial unique indexes scope uniqueness to live rows (policy name,
  enrollment pairing).

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Writes inside WithTx run under the
  write lock against a single *sql.Tx, so concurrent allocations against
  the same grants serialize instead of losing updates. In production with
  PostgreSQL, row-level locking handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/vacation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := vacation.NewEngine(store, vacation.SystemClock{}, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - vacation/store.go: Interface definitions
  - vacation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/atlashr/vacation-engine/vacation"
)

// Store implements vacation.Store and vacation.UserDirectory using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Users (directory for existence/name lookups)
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		created_at TEXT NOT NULL
	);

	-- Policies
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		vacation_type TEXT NOT NULL,
		grant_method TEXT NOT NULL,
		flexible_grant BOOLEAN DEFAULT FALSE,
		grant_time TEXT,
		minute_grant BOOLEAN DEFAULT FALSE,
		approval_required_count INTEGER DEFAULT 0,
		effective_type TEXT,
		expiration_type TEXT,
		repeat_unit TEXT,
		repeat_interval INTEGER DEFAULT 0,
		specific_month INTEGER,
		specific_day INTEGER,
		first_grant_date TEXT,
		recurring BOOLEAN DEFAULT FALSE,
		max_grant_count INTEGER,
		can_delete BOOLEAN DEFAULT TRUE,
		deleted BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Policy names are unique among live rows only
	CREATE UNIQUE INDEX IF NOT EXISTS idx_policies_name
		ON policies(name) WHERE deleted = FALSE;

	-- Grants (the ledger)
	CREATE TABLE IF NOT EXISTS grants (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		policy_id TEXT,
		description TEXT,
		vacation_type TEXT NOT NULL,
		grant_date TEXT NOT NULL,
		expiry_date TEXT NOT NULL,
		grant_time TEXT NOT NULL,
		remain_time TEXT NOT NULL,
		deleted BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Allocation hot path: eligible grants per user and type
	CREATE INDEX IF NOT EXISTS idx_grants_user_type
		ON grants(user_id, vacation_type, expiry_date) WHERE deleted = FALSE;

	-- Usages
	CREATE TABLE IF NOT EXISTS usages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		description TEXT,
		vacation_type TEXT NOT NULL,
		time_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		used_time TEXT NOT NULL,
		deleted BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_usages_user
		ON usages(user_id) WHERE deleted = FALSE;

	-- Deductions (usage-to-grant junction ledger)
	CREATE TABLE IF NOT EXISTS usage_deductions (
		id TEXT PRIMARY KEY,
		usage_id TEXT NOT NULL,
		grant_id TEXT NOT NULL,
		deducted_time TEXT NOT NULL,
		deleted BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deductions_usage
		ON usage_deductions(usage_id);
	CREATE INDEX IF NOT EXISTS idx_deductions_grant
		ON usage_deductions(grant_id);

	-- Grant requests (approval workflow)
	CREATE TABLE IF NOT EXISTS grant_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		policy_id TEXT NOT NULL,
		requested_amount TEXT,
		description TEXT,
		status TEXT NOT NULL,
		grant_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user
		ON grant_requests(user_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON grant_requests(status);

	-- Approval rows, one slot per approver
	CREATE TABLE IF NOT EXISTS approvals (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		approver_id TEXT NOT NULL,
		approval_order INTEGER NOT NULL,
		status TEXT NOT NULL,
		approval_date TEXT,
		rejection_reason TEXT,
		deleted BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL,
		UNIQUE(request_id, approval_order)
	);

	CREATE INDEX IF NOT EXISTS idx_approvals_request
		ON approvals(request_id);
	CREATE INDEX IF NOT EXISTS idx_approvals_approver
		ON approvals(approver_id, status);

	-- Enrollments (issuance cursors for repeat policies)
	CREATE TABLE IF NOT EXISTS enrollments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		policy_id TEXT NOT NULL,
		last_grant_date TEXT,
		grant_count INTEGER DEFAULT 0,
		deleted BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- One live enrollment per user-policy pairing
	CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_pairing
		ON enrollments(user_id, policy_id) WHERE deleted = FALSE;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction, holding the write lock
// so concurrent multi-step operations serialize.
func (s *Store) WithTx(ctx context.Context, fn func(store vacation.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore exposes a *sql.Tx as a vacation.Store. The parent holds the write
// lock for the lifetime of the transaction.
type txStore struct {
	tx *sql.Tx
}

// WithTx inside a transaction runs against the same view.
func (ts *txStore) WithTx(ctx context.Context, fn func(store vacation.Store) error) error {
	return fn(ts)
}

// =============================================================================
// USER DIRECTORY (vacation.UserDirectory interface)
// =============================================================================

// User is a directory record.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// SaveUser inserts or updates a user.
func (s *Store) SaveUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (id, name, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email
	`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Exists reports whether the user id is known. Lock-free: directory reads
// run inside WithTx while the write lock is held.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE id = ?", id,
	).Scan(&count)
	return count > 0, err
}

// DisplayName returns the user's name, or NotFound for an unknown id.
func (s *Store) DisplayName(ctx context.Context, id string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM users WHERE id = ?", id,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", &vacation.NotFoundError{Kind: "user", ID: id}
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, created_at FROM users ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var email sql.NullString
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &email, &createdAt); err != nil {
			return nil, err
		}
		u.Email = email.String
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func formatDate(d vacation.Date) string { return d.String() }

func formatDatePtr(d *vacation.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDate(s string) vacation.Date {
	d, _ := vacation.ParseDate(s)
	return d
}

func parseDatePtr(s sql.NullString) *vacation.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d := parseDate(s.String)
	return &d
}

func formatAmountPtr(a *vacation.Amount) sql.NullString {
	if a == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: a.String(), Valid: true}
}

func parseAmountPtr(s sql.NullString) *vacation.Amount {
	if !s.Valid {
		return nil
	}
	a := vacation.ParseAmount(s.String)
	return &a
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func timePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, _ := time.Parse(time.RFC3339, s.String)
	return &t
}
