package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kedai-qr/api/internal/database"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SessionStore defines the DB methods needed for table sessions.
// Satisfied by *database.Queries.
type SessionStore interface {
	CreateTable(ctx context.Context, tableNumber string) (database.Table, error)
	GetTable(ctx context.Context, id int64) (database.Table, error)
	GetTableByNumber(ctx context.Context, tableNumber string) (database.Table, error)
	UpdateTableToken(ctx context.Context, arg database.UpdateTableTokenParams) (database.Table, error)
}

// TokenResult is the outcome of GenerateToken.
type TokenResult struct {
	Table  database.Table
	Token  string
	Reused bool
}

// SessionService issues and validates table QR tokens. One TTL governs both
// reuse on issue and acceptance on validation.
type SessionService struct {
	store SessionStore
	ttl   time.Duration
	now   func() time.Time
}

func NewSessionService(store SessionStore, ttl time.Duration) *SessionService {
	return &SessionService{store: store, ttl: ttl, now: time.Now}
}

// CreateTable registers a table number.
func (s *SessionService) CreateTable(ctx context.Context, tableNumber string) (database.Table, error) {
	if tableNumber == "" {
		return database.Table{}, ErrInvalidTableNumber
	}
	t, err := s.store.CreateTable(ctx, tableNumber)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return database.Table{}, ErrTableExists
		}
		return database.Table{}, fmt.Errorf("create table: %w", err)
	}
	return t, nil
}

// GenerateToken returns the table's current token if it is still fresh and
// force is false. Otherwise it mints a new one. Concurrent forced calls race
// and the last writer wins.
func (s *SessionService) GenerateToken(ctx context.Context, tableID int64, force bool) (*TokenResult, error) {
	table, err := s.store.GetTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidTable
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	now := s.now()
	if !force && table.QrToken.Valid && tokenFresh(table, now, s.ttl) {
		return &TokenResult{Table: table, Token: table.QrToken.String, Reused: true}, nil
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateTableToken(ctx, database.UpdateTableTokenParams{
		ID:            tableID,
		QrToken:       pgtype.Text{String: token, Valid: true},
		QrGeneratedAt: pgtype.Timestamptz{Time: now, Valid: true},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidTable
		}
		return nil, fmt.Errorf("update table token: %w", err)
	}
	return &TokenResult{Table: updated, Token: token}, nil
}

// ValidateToken checks a table number + token pair. It has no side effects.
func (s *SessionService) ValidateToken(ctx context.Context, tableNumber, token string) (database.Table, error) {
	return resolveSession(ctx, s.store, tableNumber, token, s.now(), s.ttl)
}

type tableByNumber interface {
	GetTableByNumber(ctx context.Context, tableNumber string) (database.Table, error)
}

// resolveSession is shared by every session-scoped operation so that the
// same rules apply inside and outside transactions.
func resolveSession(ctx context.Context, store tableByNumber, tableNumber, token string, now time.Time, ttl time.Duration) (database.Table, error) {
	table, err := store.GetTableByNumber(ctx, tableNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Table{}, ErrInvalidTable
		}
		return database.Table{}, fmt.Errorf("get table by number: %w", err)
	}
	if err := checkToken(table, token, now, ttl); err != nil {
		return database.Table{}, err
	}
	return table, nil
}

func checkToken(table database.Table, token string, now time.Time, ttl time.Duration) error {
	if token == "" || !table.QrToken.Valid || table.QrToken.String != token {
		return ErrInvalidToken
	}
	if !tokenFresh(table, now, ttl) {
		return ErrTokenExpired
	}
	return nil
}

func tokenFresh(table database.Table, now time.Time, ttl time.Duration) bool {
	if !table.QrGeneratedAt.Valid {
		return false
	}
	return now.Sub(table.QrGeneratedAt.Time) <= ttl
}

// newToken returns 128 random bits, hex encoded.
func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
