package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/toeirei/sshlure/internal/model"
	"github.com/uptrace/bun"
)

// ClientModel maps the `clients` table: one row per accepted connection.
type ClientModel struct {
	bun.BaseModel `bun:"table:clients"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Timestamp     time.Time `bun:"timestamp,notnull"`
	ClientIP      string    `bun:"client_ip,notnull"`
	Port          int       `bun:"port,notnull"`
}

// CredentialModel maps the `credentials` table: one row per captured
// authentication attempt.
type CredentialModel struct {
	bun.BaseModel `bun:"table:credentials"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Timestamp     time.Time `bun:"timestamp,notnull"`
	ClientIP      string    `bun:"client_ip,notnull"`
	Port          int       `bun:"port,notnull"`
	AuthType      string    `bun:"auth_type,notnull"`
	Username      string    `bun:"username,notnull"`
	Secret        string    `bun:"secret,notnull"`
}

func (m CredentialModel) toModel() model.Attempt {
	return model.Attempt{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		ClientIP:  m.ClientIP,
		Port:      m.Port,
		AuthType:  model.AuthMethod(m.AuthType),
		Username:  m.Username,
		Secret:    m.Secret,
	}
}

// BunStore implements Store on top of bun for every supported dialect.
type BunStore struct {
	bun    *bun.DB
	dbType string
	clock  Clock
}

var _ Store = (*BunStore)(nil)

// BunDB exposes the underlying *bun.DB, mostly for tests and maintenance.
func (s *BunStore) BunDB() *bun.DB { return s.bun }

// Type returns the configured database type.
func (s *BunStore) Type() string { return s.dbType }

// SetClock replaces the clock used to stamp new records. A nil clock
// restores the system clock.
func (s *BunStore) SetClock(c Clock) {
	if c == nil {
		c = systemClock{}
	}
	s.clock = c
}

func (s *BunStore) now() time.Time {
	return s.clock.Now().UTC()
}

// RecordConnection appends a connection event for clientIP.
func (s *BunStore) RecordConnection(ctx context.Context, clientIP string, port int) error {
	if clientIP == "" {
		return fmt.Errorf("%w: client address is required", ErrInvalidRecord)
	}
	row := &ClientModel{
		Timestamp: s.now(),
		ClientIP:  clientIP,
		Port:      port,
	}
	if _, err := s.bun.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert client connection: %w", MapDBError(err))
	}
	return nil
}

// RecordAttempt appends an authentication attempt. a.Timestamp and a.ID are
// ignored; the timestamp is assigned here.
func (s *BunStore) RecordAttempt(ctx context.Context, a model.Attempt) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	row := &CredentialModel{
		Timestamp: s.now(),
		ClientIP:  a.ClientIP,
		Port:      a.Port,
		AuthType:  string(a.AuthType),
		Username:  a.Username,
		Secret:    a.Secret,
	}
	if _, err := s.bun.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert credentials: %w", MapDBError(err))
	}
	return nil
}

// RecentAttempts returns up to limit attempts, newest first.
func (s *BunStore) RecentAttempts(ctx context.Context, limit int) ([]model.Attempt, error) {
	var rows []CredentialModel
	err := s.bun.NewSelect().Model(&rows).OrderExpr("id DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Attempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// StreamAttempts walks attempts in insertion order without loading the
// whole table.
func (s *BunStore) StreamAttempts(ctx context.Context, since time.Time, fn func(model.Attempt) error) error {
	q := s.bun.NewSelect().Model((*CredentialModel)(nil)).OrderExpr("id ASC")
	if !since.IsZero() {
		q = q.Where("? >= ?", bun.Ident("timestamp"), since.UTC())
	}
	rows, err := q.Rows(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var m CredentialModel
		if err := s.bun.ScanRow(ctx, rows, &m); err != nil {
			return err
		}
		if err := fn(m.toModel()); err != nil {
			return err
		}
	}
	return rows.Err()
}

// TopCredentials returns the most tried username/password pairs.
func (s *BunStore) TopCredentials(ctx context.Context, limit int) ([]model.CredentialCount, error) {
	var out []model.CredentialCount
	err := s.bun.NewSelect().
		Model((*CredentialModel)(nil)).
		Column("username", "secret").
		ColumnExpr("COUNT(*) AS attempts").
		Where("auth_type = ?", string(model.AuthPassword)).
		Group("username", "secret").
		OrderExpr("attempts DESC, username ASC").
		Limit(limit).
		Scan(ctx, &out)
	return out, err
}

// TopUsernames returns the most tried usernames across all methods.
func (s *BunStore) TopUsernames(ctx context.Context, limit int) ([]model.UsernameCount, error) {
	var out []model.UsernameCount
	err := s.bun.NewSelect().
		Model((*CredentialModel)(nil)).
		Column("username").
		ColumnExpr("COUNT(*) AS attempts").
		Group("username").
		OrderExpr("attempts DESC, username ASC").
		Limit(limit).
		Scan(ctx, &out)
	return out, err
}

// TopSources returns the client addresses with the most attempts.
func (s *BunStore) TopSources(ctx context.Context, limit int) ([]model.SourceCount, error) {
	var out []model.SourceCount
	err := s.bun.NewSelect().
		Model((*CredentialModel)(nil)).
		Column("client_ip").
		ColumnExpr("COUNT(*) AS attempts").
		Group("client_ip").
		OrderExpr("attempts DESC, client_ip ASC").
		Limit(limit).
		Scan(ctx, &out)
	return out, err
}

type methodCount struct {
	AuthType string `bun:"auth_type"`
	Attempts int64  `bun:"attempts"`
}

// Summary collects headline numbers over both tables.
func (s *BunStore) Summary(ctx context.Context) (model.Summary, error) {
	sum := model.Summary{ByMethod: make(map[model.AuthMethod]int64, len(model.AuthMethods))}

	conns, err := s.bun.NewSelect().Model((*ClientModel)(nil)).Count(ctx)
	if err != nil {
		return sum, fmt.Errorf("count clients: %w", err)
	}
	sum.Connections = int64(conns)

	if err := s.bun.NewSelect().
		Model((*ClientModel)(nil)).
		ColumnExpr("COUNT(DISTINCT client_ip)").
		Scan(ctx, &sum.UniqueSources); err != nil {
		return sum, fmt.Errorf("count sources: %w", err)
	}

	var methods []methodCount
	if err := s.bun.NewSelect().
		Model((*CredentialModel)(nil)).
		Column("auth_type").
		ColumnExpr("COUNT(*) AS attempts").
		Group("auth_type").
		Scan(ctx, &methods); err != nil {
		return sum, fmt.Errorf("count methods: %w", err)
	}
	for _, m := range model.AuthMethods {
		sum.ByMethod[m] = 0
	}
	for _, m := range methods {
		sum.ByMethod[model.AuthMethod(m.AuthType)] = m.Attempts
		sum.Attempts += m.Attempts
	}

	var first, last ClientModel
	if err := s.bun.NewSelect().Model(&first).OrderExpr("id ASC").Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sum, nil
		}
		return sum, fmt.Errorf("first connection: %w", err)
	}
	if err := s.bun.NewSelect().Model(&last).OrderExpr("id DESC").Limit(1).Scan(ctx); err != nil {
		return sum, fmt.Errorf("last connection: %w", err)
	}
	sum.FirstSeen = first.Timestamp
	sum.LastSeen = last.Timestamp
	return sum, nil
}

// Ping checks that the database is reachable.
func (s *BunStore) Ping(ctx context.Context) error {
	return s.bun.PingContext(ctx)
}

// Close releases the connection pool.
func (s *BunStore) Close() error {
	return s.bun.Close()
}
