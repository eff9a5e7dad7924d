// Package store persists users, profiles and application attempts in a
// local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/applymate/applymate/internal/form"
	"github.com/applymate/applymate/internal/profile"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownStatus      = errors.New("unknown application status")
)

// Status is the lifecycle state of one application attempt. The tool never
// submits forms itself; "submitted" records that the user reported doing so.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusSkipped   Status = "skipped"
)

func (s Status) valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusSkipped:
		return true
	}
	return false
}

const defaultUsername = "default"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	is_active     INTEGER NOT NULL DEFAULT 1,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS profiles (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	data       TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS applications (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id         INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	job_url         TEXT NOT NULL,
	job_title       TEXT NOT NULL DEFAULT '',
	company_name    TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'draft',
	detected_fields TEXT NOT NULL DEFAULT '[]',
	filled_data     TEXT NOT NULL DEFAULT '{}',
	notes           TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store wraps the SQLite database holding profiles and application history.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Debug("database opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// User is an account row. The password hash never leaves the package.
type User struct {
	ID       int64
	Username string
	Email    string
	IsActive bool
}

// CreateUser stores a new account with a bcrypt password hash.
func (s *Store) CreateUser(ctx context.Context, username, email, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, email, string(hash),
	)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return result.LastInsertId()
}

// Authenticate checks the password against the stored hash. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	var (
		user User
		hash string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, is_active FROM users WHERE username = ?`,
		username,
	).Scan(&user.ID, &user.Username, &user.Email, &hash, &user.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// EnsureDefaultUser returns the id of the built-in single-user account,
// creating it on first run. The default account has no password and cannot
// be authenticated against.
func (s *Store) EnsureDefaultUser(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ?`, defaultUsername,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("query default user: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username) VALUES (?)`, defaultUsername,
	)
	if err != nil {
		return 0, fmt.Errorf("create default user: %w", err)
	}
	return result.LastInsertId()
}

// UpsertProfile stores the profile as the user's single JSON document,
// replacing any previous one.
func (s *Store) UpsertProfile(ctx context.Context, userID int64, p profile.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, data) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		userID, string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile loads the user's profile. ErrNotFound means no profile has
// been imported yet.
func (s *Store) GetProfile(ctx context.Context, userID int64) (profile.Profile, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM profiles WHERE user_id = ?`, userID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("query profile: %w", err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return profile.Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return p, nil
}

// GetProfileValues loads the user's profile as fillable attribute values.
func (s *Store) GetProfileValues(ctx context.Context, userID int64) (profile.Values, error) {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.Values(), nil
}

// Application is one recorded auto-fill attempt.
type Application struct {
	ID          int64
	UserID      int64
	JobURL      string
	JobTitle    string
	CompanyName string
	Status      Status
	Notes       string
	CreatedAt   time.Time
}

// CreateApplication records a new draft attempt for the given posting.
func (s *Store) CreateApplication(ctx context.Context, userID int64, jobURL, jobTitle, companyName string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (user_id, job_url, job_title, company_name, status) VALUES (?, ?, ?, ?, ?)`,
		userID, jobURL, jobTitle, companyName, string(StatusDraft),
	)
	if err != nil {
		return 0, fmt.Errorf("insert application: %w", err)
	}
	return result.LastInsertId()
}

// SaveDetectedFields attaches the detected descriptors to the attempt.
func (s *Store) SaveDetectedFields(ctx context.Context, applicationID int64, fields []form.Field) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal detected fields: %w", err)
	}
	return s.updateApplication(ctx, applicationID,
		`UPDATE applications SET detected_fields = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(data), applicationID,
	)
}

// SaveFilledData attaches the selector-to-value map that was written into
// the page.
func (s *Store) SaveFilledData(ctx context.Context, applicationID int64, filled map[string]string) error {
	data, err := json.Marshal(filled)
	if err != nil {
		return fmt.Errorf("marshal filled data: %w", err)
	}
	return s.updateApplication(ctx, applicationID,
		`UPDATE applications SET filled_data = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(data), applicationID,
	)
}

// UpdateApplicationStatus moves the attempt to a new lifecycle state.
func (s *Store) UpdateApplicationStatus(ctx context.Context, applicationID int64, status Status) error {
	if !status.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return s.updateApplication(ctx, applicationID,
		`UPDATE applications SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), applicationID,
	)
}

func (s *Store) updateApplication(ctx context.Context, applicationID int64, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("application %d: %w", applicationID, ErrNotFound)
	}
	return nil
}

// DetectedFields loads the descriptors recorded for the attempt.
func (s *Store) DetectedFields(ctx context.Context, applicationID int64) ([]form.Field, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT detected_fields FROM applications WHERE id = ?`, applicationID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query application: %w", err)
	}

	var fields []form.Field
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal detected fields: %w", err)
	}
	return fields, nil
}

// ListApplications returns the user's attempts, newest first.
func (s *Store) ListApplications(ctx context.Context, userID int64) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, job_url, job_title, company_name, status, notes, created_at
		FROM applications WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var applications []Application
	for rows.Next() {
		var (
			app     Application
			status  string
			created string
		)
		if err := rows.Scan(&app.ID, &app.UserID, &app.JobURL, &app.JobTitle,
			&app.CompanyName, &status, &app.Notes, &created); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		app.Status = Status(status)
		// CURRENT_TIMESTAMP stores UTC in sqlite's default text format.
		app.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", created)
		applications = append(applications, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return applications, nil
}
