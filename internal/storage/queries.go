package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type SessionRow struct {
	Token     string
	Username  string
	CreatedAt int64
	ExpiresAt int64
}

const createSession = `INSERT INTO sessions (token, username, created_at, expires_at)
VALUES (?, ?, ?, ?)`

func (q *Queries) CreateSession(ctx context.Context, arg SessionRow) error {
	_, err := q.db.ExecContext(ctx, createSession, arg.Token, arg.Username, arg.CreatedAt, arg.ExpiresAt)
	return err
}

const getSession = `SELECT token, username, created_at, expires_at
FROM sessions
WHERE token = ?`

func (q *Queries) GetSession(ctx context.Context, token string) (SessionRow, error) {
	row := q.db.QueryRowContext(ctx, getSession, token)
	var i SessionRow
	err := row.Scan(&i.Token, &i.Username, &i.CreatedAt, &i.ExpiresAt)
	return i, err
}

const deleteSession = `DELETE FROM sessions WHERE token = ?`

func (q *Queries) DeleteSession(ctx context.Context, token string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSession, token)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at <= ?`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredSessions, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countSessions = `SELECT COUNT(*) FROM sessions WHERE expires_at > ?`

func (q *Queries) CountActiveSessions(ctx context.Context, now int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSessions, now)
	var n int64
	err := row.Scan(&n)
	return n, err
}
