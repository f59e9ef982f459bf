// Package sqlite3 persists profiles, the broker catalog and removal requests
// in a SQLite file through the pure-Go modernc driver.
package sqlite3

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var _ output.Store = (*Store)(nil)

type statement struct {
	target **sql.Stmt
	query  string
}

type statementList []statement

func (l statementList) prepare(db *sql.DB) error {
	for _, s := range l {
		stmt, err := db.Prepare(s.query)
		if err != nil {
			return fmt.Errorf("prepare %q: %w", s.query, err)
		}
		*s.target = stmt
	}
	return nil
}

type Store struct {
	db  *sql.DB
	now func() time.Time

	insertUser     *sql.Stmt
	updateUser     *sql.Stmt
	selectUser     *sql.Stmt
	selectUsers    *sql.Stmt
	insertBroker   *sql.Stmt
	selectBrokers  *sql.Stmt
	selectBroker   *sql.Stmt
	insertRequest  *sql.Stmt
	selectByPair   *sql.Stmt
	selectByID     *sql.Stmt
	selectRequests *sql.Stmt
	updateRequest  *sql.Stmt
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows a single writer; ":memory:" is also per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	err = statementList{
		{&s.insertUser, insertUserSQL},
		{&s.updateUser, updateUserSQL},
		{&s.selectUser, selectUserSQL},
		{&s.selectUsers, selectUsersSQL},
		{&s.insertBroker, insertBrokerSQL},
		{&s.selectBrokers, selectBrokersSQL},
		{&s.selectBroker, selectBrokerSQL},
		{&s.insertRequest, insertRequestSQL},
		{&s.selectByPair, selectRequestByPairSQL},
		{&s.selectByID, selectRequestByIDSQL},
		{&s.selectRequests, selectRequestsSQL},
		{&s.updateRequest, updateRequestSQL},
	}.prepare(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateUser(ctx context.Context, user *entity.UserProfile) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	prev, family, err := encodeLists(user)
	if err != nil {
		return err
	}
	_, err = s.insertUser.ExecContext(ctx,
		user.ID, user.FullName, user.FirstName, user.LastName, user.Email, user.Phone,
		user.CurrentAddress, prev, user.DateOfBirth, family, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *entity.UserProfile) error {
	prev, family, err := encodeLists(user)
	if err != nil {
		return err
	}
	user.UpdatedAt = s.now()
	res, err := s.updateUser.ExecContext(ctx,
		user.ID, user.FullName, user.FirstName, user.LastName, user.Email, user.Phone,
		user.CurrentAddress, prev, user.DateOfBirth, family, user.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", entity.ErrUserNotFound, user.ID)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*entity.UserProfile, error) {
	u, err := scanUser(s.selectUser.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]entity.UserProfile, error) {
	rows, err := s.selectUsers.QueryContext(ctx)
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // nolint: errcheck

	stmt := tx.StmtContext(ctx, s.insertBroker)
	added := 0
	for _, b := range brokers {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = s.now()
		}
		res, err := stmt.ExecContext(ctx,
			b.ID, b.Name, b.Website, string(b.Category), b.RemovalURL, b.RemovalMethod,
			b.AutomationAvailable, b.RemovalInstructions, b.VerificationMethod, b.EstimatedTime,
			b.SuccessRate, b.RecipeRef, b.InstructionRef, b.CreatedAt.UnixMilli())
		if err != nil {
			return 0, fmt.Errorf("insert broker %s: %w", b.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

func (s *Store) ListBrokers(ctx context.Context) ([]entity.Broker, error) {
	rows, err := s.selectBrokers.QueryContext(ctx)
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
	b, err := scanBroker(s.selectBroker.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrBrokerNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select broker: %w", err)
	}
	return b, nil
}

func (s *Store) CreateRequest(ctx context.Context, userID string, broker *entity.Broker) (*entity.RemovalRequest, bool, error) {
	now := s.now()
	res, err := s.insertRequest.ExecContext(ctx,
		uuid.NewString(), userID, broker.ID, string(entity.StatusPending), broker.RemovalMethod,
		now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, false, fmt.Errorf("insert request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	r, err := s.GetRequest(ctx, userID, broker.ID)
	if err != nil {
		return nil, false, err
	}
	return r, n > 0, nil
}

func (s *Store) GetRequest(ctx context.Context, userID, brokerID string) (*entity.RemovalRequest, error) {
	r, err := scanRequest(s.selectByPair.QueryRowContext(ctx, userID, brokerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s broker %s", entity.ErrRequestNotFound, userID, brokerID)
	}
	if err != nil {
		return nil, fmt.Errorf("select request: %w", err)
	}
	return r, nil
}

func (s *Store) UpdateRequest(ctx context.Context, id string, update entity.RequestUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // nolint: errcheck

	r, err := scanRequest(tx.StmtContext(ctx, s.selectByID).QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", entity.ErrRequestNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("select request: %w", err)
	}

	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = s.now()
	}
	update.Apply(r)

	details, err := encodeDetails(r.ConfirmationDetails)
	if err != nil {
		return err
	}
	_, err = tx.StmtContext(ctx, s.updateRequest).ExecContext(ctx,
		r.ID, string(r.Status), nullMillis(r.CompletedAt), details, r.Notes,
		r.RetryCount, nullMillis(r.NextRetryAt), r.UpdatedAt.UnixMilli(), r.MethodUsed)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return tx.Commit()
}

func (s *Store) ListRequests(ctx context.Context, userID string) ([]entity.RemovalRequest, error) {
	rows, err := s.selectRequests.QueryContext(ctx, userID)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*entity.UserProfile, error) {
	var (
		u                entity.UserProfile
		prev, family     string
		created, updated int64
	)
	err := row.Scan(&u.ID, &u.FullName, &u.FirstName, &u.LastName, &u.Email, &u.Phone,
		&u.CurrentAddress, &prev, &u.DateOfBirth, &family, &created, &updated)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(prev), &u.PreviousAddresses); err != nil {
		return nil, fmt.Errorf("decode previous_addresses: %w", err)
	}
	if err := json.Unmarshal([]byte(family), &u.FamilyMembers); err != nil {
		return nil, fmt.Errorf("decode family_members: %w", err)
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	u.UpdatedAt = time.UnixMilli(updated).UTC()
	return &u, nil
}

func scanBroker(row scanner) (*entity.Broker, error) {
	var (
		b        entity.Broker
		category string
		created  int64
	)
	err := row.Scan(&b.ID, &b.Name, &b.Website, &category, &b.RemovalURL, &b.RemovalMethod,
		&b.AutomationAvailable, &b.RemovalInstructions, &b.VerificationMethod, &b.EstimatedTime,
		&b.SuccessRate, &b.RecipeRef, &b.InstructionRef, &created)
	if err != nil {
		return nil, err
	}
	b.Category = entity.BrokerCategory(category)
	b.CreatedAt = time.UnixMilli(created).UTC()
	return &b, nil
}

func scanRequest(row scanner) (*entity.RemovalRequest, error) {
	var (
		r                  entity.RemovalRequest
		status             string
		submitted, updated int64
		completed, nextTry sql.NullInt64
		details            sql.NullString
	)
	err := row.Scan(&r.ID, &r.UserID, &r.BrokerID, &status, &r.MethodUsed, &submitted,
		&completed, &details, &r.Notes, &r.RetryCount, &nextTry, &updated)
	if err != nil {
		return nil, err
	}
	if r.Status, err = entity.ParseStatus(status); err != nil {
		return nil, err
	}
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &r.ConfirmationDetails); err != nil {
			return nil, fmt.Errorf("decode confirmation_details: %w", err)
		}
	}
	r.SubmittedAt = time.UnixMilli(submitted).UTC()
	r.UpdatedAt = time.UnixMilli(updated).UTC()
	r.CompletedAt = fromNullMillis(completed)
	r.NextRetryAt = fromNullMillis(nextTry)
	return &r, nil
}

func encodeLists(u *entity.UserProfile) (string, string, error) {
	prev := u.PreviousAddresses
	if prev == nil {
		prev = []string{}
	}
	family := u.FamilyMembers
	if family == nil {
		family = []string{}
	}
	p, err := json.Marshal(prev)
	if err != nil {
		return "", "", err
	}
	f, err := json.Marshal(family)
	if err != nil {
		return "", "", err
	}
	return string(p), string(f), nil
}

func encodeDetails(details map[string]any) (sql.NullString, error) {
	if details == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode confirmation_details: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
