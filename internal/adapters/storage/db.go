package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smithagency/internal/domain/pricing"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	up      func(ctx context.Context, tx *sql.Tx) error
}

// migrations is the ordered schema history. Never edit an applied step; append a new one.
var migrations = []migration{
	{1, "baseline", migrateBaseline},
	{2, "booking_rate_and_attempts", migrateBookingRateAndAttempts},
	{3, "normalize_legacy_deposits", migrateNormalizeLegacyDeposits},
	{4, "booking_checkout_session_unique", migrateCheckoutSessionUnique},
}

// LatestSchemaVersion returns the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, 0 for an empty database.
// PRE: db is a valid database connection
// POST: Returns the highest applied version
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// When dbPath names a file and the database already holds data, a snapshot is
// written next to it before the first pending step.
// PRE: db is a valid database connection
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB, dbPath string) error {
	return migrateTo(db, dbPath, LatestSchemaVersion())
}

func migrateTo(db *sql.DB, dbPath string, target int) error {
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= target {
		return nil
	}

	if current > 0 && dbPath != "" && !strings.HasPrefix(dbPath, ":memory:") {
		backup := fmt.Sprintf("%s.bak-v%d-%s", dbPath, current, time.Now().UTC().Format("20060102T150405"))
		if _, err := db.ExecContext(ctx, "VACUUM INTO ?", backup); err != nil {
			return fmt.Errorf("pre-migration backup: %w", err)
		}
		slog.Info("migration_event", "event", "backup_written", "path", backup, "from_version", current)
	}

	for _, m := range migrations {
		if m.version <= current || m.version > target {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %d: begin: %w", m.version, err)
		}
		if err := m.up(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`,
			m.version, m.name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record version: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", m.version, err)
		}
		slog.Info("migration_event", "event", "migration_applied", "version", m.version, "name", m.name)
	}
	return nil
}

func migrateBaseline(ctx context.Context, tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS client (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		company_name TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contact (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (client_id) REFERENCES client(id)
	);
	CREATE INDEX IF NOT EXISTS idx_contact_client ON contact(client_id);

	CREATE TABLE IF NOT EXISTS showroom (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		city TEXT NOT NULL,
		building_number TEXT NOT NULL DEFAULT '',
		floor_number TEXT NOT NULL DEFAULT '',
		booth_number TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (client_id) REFERENCES client(id)
	);
	CREATE INDEX IF NOT EXISTS idx_showroom_client ON showroom(client_id);

	CREATE TABLE IF NOT EXISTS trade_show (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS booking (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		client_email TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		show_id TEXT NOT NULL DEFAULT '',
		show_name TEXT NOT NULL DEFAULT '',
		contact_id TEXT NOT NULL DEFAULT '',
		showroom_id TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		requested_date TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		dates_needed TEXT NOT NULL DEFAULT '[]',
		total_staff_needed INTEGER NOT NULL DEFAULT 0,
		booking_fee_cents INTEGER NOT NULL DEFAULT 0,
		booking_fee_cents_paid INTEGER NOT NULL DEFAULT 0,
		payment_status TEXT NOT NULL,
		stripe_checkout_session_id TEXT NOT NULL DEFAULT '',
		stripe_payment_intent_id TEXT NOT NULL DEFAULT '',
		stripe_payment_method_id TEXT NOT NULL DEFAULT '',
		stripe_customer_id TEXT NOT NULL DEFAULT '',
		currency TEXT NOT NULL DEFAULT 'usd',
		final_charge_cents INTEGER NOT NULL DEFAULT 0,
		final_charge_payment_intent_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_booking_client ON booking(client_id, created_at);

	CREATE TABLE IF NOT EXISTS share_link (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL UNIQUE,
		client_id TEXT NOT NULL,
		client_email TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		show_id TEXT NOT NULL DEFAULT '',
		show_name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS share_link_click (
		id TEXT PRIMARY KEY,
		share_link_id TEXT NOT NULL,
		booking_id TEXT NOT NULL DEFAULT '',
		client_id TEXT NOT NULL DEFAULT '',
		show_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (share_link_id) REFERENCES share_link(id)
	);
	CREATE INDEX IF NOT EXISTS idx_click_link ON share_link_click(share_link_id);

	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		phone TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		college TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		dress_size TEXT NOT NULL DEFAULT '',
		shoe_size TEXT NOT NULL DEFAULT '',
		instagram TEXT NOT NULL DEFAULT '',
		experience TEXT NOT NULL DEFAULT '',
		application_complete INTEGER NOT NULL DEFAULT 0,
		application_approved INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS availability (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL,
		staff_name TEXT NOT NULL DEFAULT '',
		staff_email TEXT NOT NULL DEFAULT '',
		show_id TEXT NOT NULL,
		available_dates TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		FOREIGN KEY (staff_id) REFERENCES staff(id)
	);
	CREATE INDEX IF NOT EXISTS idx_availability_staff ON availability(staff_id);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 8,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at);

	CREATE TABLE IF NOT EXISTS audit_event (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		severity TEXT NOT NULL,
		actor_id TEXT NOT NULL DEFAULT '',
		actor_role TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		resource_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_event(resource_id, timestamp);
	`
	_, err := tx.ExecContext(ctx, schema)
	return err
}

func migrateBookingRateAndAttempts(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`ALTER TABLE booking ADD COLUMN rate_per_day_cents INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE booking ADD COLUMN final_charge_attempts INTEGER NOT NULL DEFAULT 0`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// migrateNormalizeLegacyDeposits folds the deposit fallback chain into the canonical column:
// paid if captured, else the requested fee, else the standard deposit. Rows booked before the
// rate was stamped get the standard rate.
func migrateNormalizeLegacyDeposits(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE booking SET booking_fee_cents_paid =
		   CASE WHEN booking_fee_cents > 0 THEN booking_fee_cents ELSE ? END
		 WHERE booking_fee_cents_paid <= 0`, pricing.DefaultDepositCents); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE booking SET rate_per_day_cents = ? WHERE rate_per_day_cents <= 0`, pricing.DefaultRatePerDayCents)
	return err
}

func migrateCheckoutSessionUnique(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_checkout_session
		 ON booking(stripe_checkout_session_id) WHERE stripe_checkout_session_id != ''`)
	return err
}

// IsUniqueViolation reports whether err is a SQLite unique constraint failure.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
