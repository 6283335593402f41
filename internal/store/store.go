package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"amp/internal/config"
	"amp/internal/settings"
)

// Scope identifies a logical key group for change notification purposes.
type Scope string

const (
	// ScopeEntitlement covers the licensed flag and trial timestamp.
	ScopeEntitlement Scope = "entitlement"
	// ScopeSettings covers per-hostname settings records.
	ScopeSettings Scope = "settings"
	// ScopeMix covers the saved mix record.
	ScopeMix Scope = "mix"
)

// Scopes lists all revision scopes in a stable order.
var Scopes = []Scope{ScopeEntitlement, ScopeSettings, ScopeMix}

// Entitlement is the persisted license/trial record. TrialConsumed stays
// set once an expired trial has been cleared: the window is not renewable.
type Entitlement struct {
	Licensed      bool
	TrialStart    *time.Time
	TrialConsumed bool
}

// SiteSettings pairs a hostname with its stored settings record.
type SiteSettings struct {
	Hostname  string
	Settings  settings.Settings
	UpdatedAt time.Time
}

// Store manages shared state persistence backed by SQLite. Both execution
// contexts (daemon and control surface) open the same database file; SQLite
// WAL mode plus whole-record writes keep them consistent without any shared
// memory.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the state database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Entitlement fetches the license/trial record.
func (s *Store) Entitlement(ctx context.Context) (Entitlement, error) {
	var (
		licensed int
		trialRaw sql.NullString
		consumed int
	)
	row := s.db.QueryRowContext(ctx, `SELECT licensed, trial_start, trial_consumed FROM entitlement WHERE id = 1`)
	if err := row.Scan(&licensed, &trialRaw, &consumed); err != nil {
		return Entitlement{}, fmt.Errorf("get entitlement: %w", err)
	}

	ent := Entitlement{Licensed: licensed != 0, TrialConsumed: consumed != 0}
	if trialRaw.Valid {
		if start, err := parseTimeString(trialRaw.String); err == nil {
			ent.TrialStart = &start
		}
	}
	return ent, nil
}

// SetLicensed replaces the licensed flag. Activating a license also clears
// any running trial: the license always wins and the trial must not survive
// it in storage.
func (s *Store) SetLicensed(ctx context.Context, licensed bool) error {
	return s.withBump(ctx, ScopeEntitlement, func(tx *sql.Tx) error {
		if licensed {
			_, err := tx.ExecContext(ctx,
				`UPDATE entitlement SET licensed = 1, trial_start = NULL, updated_at = ? WHERE id = 1`,
				timestamp())
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE entitlement SET licensed = 0, updated_at = ? WHERE id = 1`,
			timestamp())
		return err
	})
}

// SetTrialStart records the trial start time.
func (s *Store) SetTrialStart(ctx context.Context, start time.Time) error {
	return s.withBump(ctx, ScopeEntitlement, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE entitlement SET trial_start = ?, updated_at = ? WHERE id = 1`,
			start.UTC().Format(time.RFC3339Nano), timestamp())
		return err
	})
}

// ClearTrialStart removes the trial timestamp, consuming the trial window
// permanently.
func (s *Store) ClearTrialStart(ctx context.Context) error {
	return s.withBump(ctx, ScopeEntitlement, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE entitlement SET trial_start = NULL, trial_consumed = 1, updated_at = ? WHERE id = 1`,
			timestamp())
		return err
	})
}

// SettingsFor fetches the stored settings record for a hostname. The boolean
// reports whether a record exists; callers still clamp whatever comes back.
func (s *Store) SettingsFor(ctx context.Context, hostname string) (settings.Settings, bool, error) {
	hostname = settings.NormalizeHostname(hostname)
	row := s.db.QueryRowContext(ctx,
		`SELECT volume_boost, speed, night_mode, pitch_semitones FROM site_settings WHERE hostname = ?`,
		hostname)
	rec, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Defaults(), false, nil
	}
	if err != nil {
		return settings.Defaults(), false, fmt.Errorf("get settings for %q: %w", hostname, err)
	}
	return rec, true, nil
}

// PutSettings replaces the settings record for a hostname.
func (s *Store) PutSettings(ctx context.Context, hostname string, rec settings.Settings) error {
	hostname = settings.NormalizeHostname(hostname)
	if hostname == "" {
		return errors.New("hostname is required")
	}
	return s.withBump(ctx, ScopeSettings, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO site_settings (hostname, volume_boost, speed, night_mode, pitch_semitones, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)
             ON CONFLICT(hostname) DO UPDATE SET
                 volume_boost = excluded.volume_boost,
                 speed = excluded.speed,
                 night_mode = excluded.night_mode,
                 pitch_semitones = excluded.pitch_semitones,
                 updated_at = excluded.updated_at`,
			hostname, rec.VolumeBoost, rec.Speed, boolToInt(rec.NightMode), rec.PitchSemitones, timestamp())
		return err
	})
}

// DeleteSettings removes the settings record for a hostname.
func (s *Store) DeleteSettings(ctx context.Context, hostname string) (bool, error) {
	hostname = settings.NormalizeHostname(hostname)
	var removed bool
	err := s.withBump(ctx, ScopeSettings, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM site_settings WHERE hostname = ?`, hostname)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		removed = affected > 0
		return err
	})
	return removed, err
}

// ListSettings returns all stored site records ordered by hostname.
func (s *Store) ListSettings(ctx context.Context) ([]SiteSettings, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hostname, volume_boost, speed, night_mode, pitch_semitones, updated_at
         FROM site_settings ORDER BY hostname`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var sites []SiteSettings
	for rows.Next() {
		var (
			site       SiteSettings
			nightMode  int
			updatedRaw string
		)
		if err := rows.Scan(&site.Hostname, &site.Settings.VolumeBoost, &site.Settings.Speed,
			&nightMode, &site.Settings.PitchSemitones, &updatedRaw); err != nil {
			return nil, err
		}
		site.Settings.NightMode = nightMode != 0
		if updated, err := parseTimeString(updatedRaw); err == nil {
			site.UpdatedAt = updated
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// SavedMix fetches the saved mix record, if any.
func (s *Store) SavedMix(ctx context.Context) (settings.Settings, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT volume_boost, speed, night_mode, pitch_semitones FROM saved_mix WHERE id = 1`)
	rec, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Defaults(), false, nil
	}
	if err != nil {
		return settings.Defaults(), false, fmt.Errorf("get saved mix: %w", err)
	}
	return rec, true, nil
}

// PutSavedMix replaces the saved mix record.
func (s *Store) PutSavedMix(ctx context.Context, rec settings.Settings) error {
	return s.withBump(ctx, ScopeMix, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO saved_mix (id, volume_boost, speed, night_mode, pitch_semitones, updated_at)
             VALUES (1, ?, ?, ?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET
                 volume_boost = excluded.volume_boost,
                 speed = excluded.speed,
                 night_mode = excluded.night_mode,
                 pitch_semitones = excluded.pitch_semitones,
                 updated_at = excluded.updated_at`,
			rec.VolumeBoost, rec.Speed, boolToInt(rec.NightMode), rec.PitchSemitones, timestamp())
		return err
	})
}

// ClearSavedMix removes the saved mix record.
func (s *Store) ClearSavedMix(ctx context.Context) error {
	return s.withBump(ctx, ScopeMix, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM saved_mix WHERE id = 1`)
		return err
	})
}

// Revisions returns the current revision counter per scope.
func (s *Store) Revisions(ctx context.Context) (map[Scope]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT scope, revision FROM revisions`)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	revs := make(map[Scope]int64, len(Scopes))
	for rows.Next() {
		var (
			scope    string
			revision int64
		)
		if err := rows.Scan(&scope, &revision); err != nil {
			return nil, err
		}
		revs[Scope(scope)] = revision
	}
	return revs, rows.Err()
}

// Health reports basic diagnostics about the state database.
type Health struct {
	DBPath         string
	DatabaseExists bool
	SiteCount      int
	Error          string
}

// CheckHealth returns diagnostic information about the state database.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}

	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat state database: %w", err)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping state database: %w", err)
	}

	row := s.db.QueryRowContext(connCtx, `SELECT COUNT(*) FROM site_settings`)
	if err := row.Scan(&health.SiteCount); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count site settings: %w", err)
	}
	return health, nil
}

func (s *Store) withBump(ctx context.Context, scope Scope, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("write %s: %w", scope, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE revisions SET revision = revision + 1 WHERE scope = ?`, string(scope)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("bump %s revision: %w", scope, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", scope, err)
	}
	return nil
}

func scanSettings(scanner interface{ Scan(dest ...any) error }) (settings.Settings, error) {
	var (
		rec       settings.Settings
		nightMode int
	)
	if err := scanner.Scan(&rec.VolumeBoost, &rec.Speed, &nightMode, &rec.PitchSemitones); err != nil {
		return settings.Settings{}, err
	}
	rec.NightMode = nightMode != 0
	return rec, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
