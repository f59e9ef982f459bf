// Package postgres is the shared-database backend for deployments that run
// more than one API process.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ output.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS user_profiles (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	current_address TEXT NOT NULL DEFAULT '',
	previous_addresses TEXT[] NOT NULL DEFAULT '{}',
	date_of_birth TEXT NOT NULL DEFAULT '',
	family_members TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS data_brokers (
	position BIGSERIAL,
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	website TEXT NOT NULL,
	category TEXT NOT NULL,
	removal_url TEXT NOT NULL DEFAULT '',
	removal_method TEXT NOT NULL,
	automation_available BOOLEAN NOT NULL DEFAULT FALSE,
	removal_instructions TEXT NOT NULL DEFAULT '',
	verification_method TEXT NOT NULL DEFAULT '',
	estimated_time TEXT NOT NULL DEFAULT '',
	success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
	recipe_ref TEXT NOT NULL DEFAULT '',
	instruction_ref TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS removal_requests (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	data_broker_id TEXT NOT NULL,
	status TEXT NOT NULL,
	method_used TEXT NOT NULL DEFAULT '',
	submitted_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	confirmation_details JSONB,
	notes TEXT NOT NULL DEFAULT '',
	retry_count INTEGER NOT NULL DEFAULT 0,
	next_retry_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, data_broker_id)
);

CREATE INDEX IF NOT EXISTS removal_requests_user_idx ON removal_requests(user_id);
`

const (
	userColumns    = `id, full_name, first_name, last_name, email, phone, current_address, previous_addresses, date_of_birth, family_members, created_at, updated_at`
	brokerColumns  = `id, name, website, category, removal_url, removal_method, automation_available, removal_instructions, verification_method, estimated_time, success_rate, recipe_ref, instruction_ref, created_at`
	requestColumns = `id, user_id, data_broker_id, status, method_used, submitted_at, completed_at, confirmation_details, notes, retry_count, next_retry_at, updated_at`
)

type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// Open connects to dsn and makes sure the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return New(db), nil
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *entity.UserProfile) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := s.db.Exec(ctx, `INSERT INTO user_profiles (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID, user.FullName, user.FirstName, user.LastName, user.Email, user.Phone,
		user.CurrentAddress, nonNil(user.PreviousAddresses), user.DateOfBirth, nonNil(user.FamilyMembers),
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *entity.UserProfile) error {
	user.UpdatedAt = s.now()
	tag, err := s.db.Exec(ctx, `UPDATE user_profiles
		SET full_name = $2, first_name = $3, last_name = $4, email = $5, phone = $6,
		    current_address = $7, previous_addresses = $8, date_of_birth = $9, family_members = $10, updated_at = $11
		WHERE id = $1`,
		user.ID, user.FullName, user.FirstName, user.LastName, user.Email, user.Phone,
		user.CurrentAddress, nonNil(user.PreviousAddresses), user.DateOfBirth, nonNil(user.FamilyMembers),
		user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", entity.ErrUserNotFound, user.ID)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*entity.UserProfile, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM user_profiles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]entity.UserProfile, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM user_profiles ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var out []entity.UserProfile
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Store) SeedBrokers(ctx context.Context, brokers []entity.Broker) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint: errcheck

	added := 0
	for _, b := range brokers {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = s.now()
		}
		tag, err := tx.Exec(ctx, `INSERT INTO data_brokers (`+brokerColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (name) DO NOTHING`,
			b.ID, b.Name, b.Website, string(b.Category), b.RemovalURL, b.RemovalMethod,
			b.AutomationAvailable, b.RemovalInstructions, b.VerificationMethod, b.EstimatedTime,
			b.SuccessRate, b.RecipeRef, b.InstructionRef, b.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("insert broker %s: %w", b.Name, err)
		}
		added += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return added, nil
}

func (s *Store) ListBrokers(ctx context.Context) ([]entity.Broker, error) {
	rows, err := s.db.Query(ctx, `SELECT `+brokerColumns+` FROM data_brokers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("select brokers: %w", err)
	}
	defer rows.Close()

	var out []entity.Broker
	for rows.Next() {
		b, err := scanBroker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan broker: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) GetBroker(ctx context.Context, id string) (*entity.Broker, error) {
	b, err := scanBroker(s.db.QueryRow(ctx, `SELECT `+brokerColumns+` FROM data_brokers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrBrokerNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select broker: %w", err)
	}
	return b, nil
}

func (s *Store) CreateRequest(ctx context.Context, userID string, broker *entity.Broker) (*entity.RemovalRequest, bool, error) {
	now := s.now()
	tag, err := s.db.Exec(ctx, `INSERT INTO removal_requests (id, user_id, data_broker_id, status, method_used, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, data_broker_id) DO NOTHING`,
		uuid.NewString(), userID, broker.ID, string(entity.StatusPending), broker.RemovalMethod, now, now)
	if err != nil {
		return nil, false, fmt.Errorf("insert request: %w", err)
	}

	r, err := s.GetRequest(ctx, userID, broker.ID)
	if err != nil {
		return nil, false, err
	}
	return r, tag.RowsAffected() > 0, nil
}

func (s *Store) GetRequest(ctx context.Context, userID, brokerID string) (*entity.RemovalRequest, error) {
	r, err := scanRequest(s.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM removal_requests WHERE user_id = $1 AND data_broker_id = $2`, userID, brokerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s broker %s", entity.ErrRequestNotFound, userID, brokerID)
	}
	if err != nil {
		return nil, fmt.Errorf("select request: %w", err)
	}
	return r, nil
}

// UpdateRequest locks the row for the read-modify-write so concurrent API
// processes do not lose each other's updates.
func (s *Store) UpdateRequest(ctx context.Context, id string, update entity.RequestUpdate) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint: errcheck

	r, err := scanRequest(tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM removal_requests WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", entity.ErrRequestNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("select request: %w", err)
	}

	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = s.now()
	}
	update.Apply(r)

	_, err = tx.Exec(ctx, `UPDATE removal_requests
		SET status = $2, completed_at = $3, confirmation_details = $4, notes = $5,
		    retry_count = $6, next_retry_at = $7, updated_at = $8, method_used = $9
		WHERE id = $1`,
		r.ID, string(r.Status), r.CompletedAt, r.ConfirmationDetails, r.Notes,
		r.RetryCount, r.NextRetryAt, r.UpdatedAt, r.MethodUsed)
	if err != nil {
		return fmt.Errorf("update request %s: %w", id, err)
	}
	return tx.Commit(ctx)
}

func (s *Store) ListRequests(ctx context.Context, userID string) ([]entity.RemovalRequest, error) {
	rows, err := s.db.Query(ctx, `SELECT `+requestColumns+` FROM removal_requests WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("select requests: %w", err)
	}
	defer rows.Close()

	var out []entity.RemovalRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (*entity.UserProfile, error) {
	var u entity.UserProfile
	err := row.Scan(&u.ID, &u.FullName, &u.FirstName, &u.LastName, &u.Email, &u.Phone,
		&u.CurrentAddress, &u.PreviousAddresses, &u.DateOfBirth, &u.FamilyMembers, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func scanBroker(row pgx.Row) (*entity.Broker, error) {
	var (
		b        entity.Broker
		category string
	)
	err := row.Scan(&b.ID, &b.Name, &b.Website, &category, &b.RemovalURL, &b.RemovalMethod,
		&b.AutomationAvailable, &b.RemovalInstructions, &b.VerificationMethod, &b.EstimatedTime,
		&b.SuccessRate, &b.RecipeRef, &b.InstructionRef, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.Category = entity.BrokerCategory(category)
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}

func scanRequest(row pgx.Row) (*entity.RemovalRequest, error) {
	var (
		r      entity.RemovalRequest
		status string
	)
	err := row.Scan(&r.ID, &r.UserID, &r.BrokerID, &status, &r.MethodUsed, &r.SubmittedAt,
		&r.CompletedAt, &r.ConfirmationDetails, &r.Notes, &r.RetryCount, &r.NextRetryAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if r.Status, err = entity.ParseStatus(status); err != nil {
		return nil, err
	}
	r.SubmittedAt = r.SubmittedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	if r.CompletedAt != nil {
		t := r.CompletedAt.UTC()
		r.CompletedAt = &t
	}
	if r.NextRetryAt != nil {
		t := r.NextRetryAt.UTC()
		r.NextRetryAt = &t
	}
	return &r, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
