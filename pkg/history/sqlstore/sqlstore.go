// Package sqlstore is the database-agnostic history.Store shared by the
// SQLite, PostgreSQL and libSQL backends. Queries are built with ent's SQL
// builder so placeholders and quoting follow the driver's dialect.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/history"
)

// Store implements history.Store over an ent SQL driver.
type Store struct {
	drv     *entsql.Driver
	builder *entsql.DialectBuilder
	now     func() time.Time
}

// New wraps drv and creates or updates the schema.
func New(ctx context.Context, drv *entsql.Driver) (*Store, error) {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{
		drv:     drv,
		builder: entsql.Dialect(drv.Dialect()),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Dialect returns the driver's dialect name.
func (s *Store) Dialect() string {
	return s.drv.Dialect()
}

type sessionRow struct {
	ID           string `sql:"id"`
	SystemPrompt string `sql:"system_prompt"`
	CreatedAt    int64  `sql:"created_at"`
	UpdatedAt    int64  `sql:"updated_at"`
}

func (r sessionRow) session() history.Session {
	return history.Session{
		ID:           r.ID,
		SystemPrompt: r.SystemPrompt,
		CreatedAt:    time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt:    time.Unix(0, r.UpdatedAt).UTC(),
	}
}

type messageRow struct {
	ID        string `sql:"id"`
	SessionID string `sql:"session_id"`
	Seq       int64  `sql:"seq"`
	Role      string `sql:"role"`
	Content   string `sql:"content"`
	CreatedAt int64  `sql:"created_at"`
}

func (r messageRow) message() history.Message {
	return history.Message{
		ID:        r.ID,
		SessionID: r.SessionID,
		Seq:       r.Seq,
		Role:      history.Role(r.Role),
		Content:   r.Content,
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
	}
}

var sessionColumns = []string{"id", "system_prompt", "created_at", "updated_at"}

var messageColumns = []string{"id", "session_id", "seq", "role", "content", "created_at"}

func (s *Store) CreateSession(ctx context.Context, systemPrompt string) (*history.Session, error) {
	now := s.now()
	row := sessionRow{
		ID:           uuid.NewString(),
		SystemPrompt: systemPrompt,
		CreatedAt:    now.UnixNano(),
		UpdatedAt:    now.UnixNano(),
	}

	query, args := s.builder.Insert(SessionsTable.Name).
		Columns("id", "system_prompt", "next_seq", "created_at", "updated_at").
		Values(row.ID, row.SystemPrompt, 0, row.CreatedAt, row.UpdatedAt).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}

	sess := row.session()
	return &sess, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*history.Session, error) {
	return s.getSession(ctx, s.drv, id)
}

func (s *Store) getSession(ctx context.Context, q dialect.ExecQuerier, id string) (*history.Session, error) {
	query, args := s.builder.Select(sessionColumns...).
		From(s.builder.Table(SessionsTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()

	var rows entsql.Rows
	if err := q.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	defer rows.Close()

	var found []sessionRow
	if err := entsql.ScanSlice(rows, &found); err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if len(found) == 0 {
		return nil, history.NotFoundError{ID: id}
	}

	sess := found[0].session()
	return &sess, nil
}

// Append takes the session's next sequence number inside a transaction. The
// UPDATE on the session row is the per-session sequence point: concurrent
// appends to one session serialize on it, appends to different sessions
// don't contend.
func (s *Store) Append(ctx context.Context, sessionID string, role history.Role, content string) (msg *history.Message, err error) {
	if err := history.ValidateRole(role); err != nil {
		return nil, err
	}

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	query, args := s.builder.Update(SessionsTable.Name).
		Add("next_seq", 1).
		Where(entsql.EQ("id", sessionID)).
		Query()
	var res entsql.Result
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		return nil, fmt.Errorf("failed to advance session sequence: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to advance session sequence: %w", err)
	} else if n == 0 {
		return nil, history.NotFoundError{ID: sessionID}
	}

	query, args = s.builder.Select("next_seq", "updated_at").
		From(s.builder.Table(SessionsTable.Name)).
		Where(entsql.EQ("id", sessionID)).
		Query()
	var rows entsql.Rows
	if err := tx.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to read session sequence: %w", err)
	}
	var seqs []struct {
		NextSeq   int64 `sql:"next_seq"`
		UpdatedAt int64 `sql:"updated_at"`
	}
	scanErr := entsql.ScanSlice(rows, &seqs)
	_ = rows.Close()
	if scanErr != nil {
		return nil, fmt.Errorf("failed to scan session sequence: %w", scanErr)
	}
	if len(seqs) == 0 {
		return nil, history.NotFoundError{ID: sessionID}
	}

	now := s.now().UnixNano()
	updatedAt := max(now, seqs[0].UpdatedAt)
	row := messageRow{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Seq:       seqs[0].NextSeq,
		Role:      string(role),
		Content:   content,
		CreatedAt: now,
	}

	query, args = s.builder.Insert(MessagesTable.Name).
		Columns(messageColumns...).
		Values(row.ID, row.SessionID, row.Seq, row.Role, row.Content, row.CreatedAt).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("could not insert message: %w", err)
	}

	query, args = s.builder.Update(SessionsTable.Name).
		Set("updated_at", updatedAt).
		Where(entsql.EQ("id", sessionID)).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	m := row.message()
	return &m, nil
}

func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]history.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []history.Message{}, nil
	}

	return s.messages(ctx, s.builder.Select(messageColumns...).
		From(s.builder.Table(MessagesTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Desc("seq")).
		Limit(limit))
}

func (s *Store) All(ctx context.Context, sessionID string) ([]history.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	return s.messages(ctx, s.builder.Select(messageColumns...).
		From(s.builder.Table(MessagesTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Asc("seq")))
}

func (s *Store) messages(ctx context.Context, sel *entsql.Selector) ([]history.Message, error) {
	query, args := sel.Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var found []messageRow
	if err := entsql.ScanSlice(rows, &found); err != nil {
		return nil, fmt.Errorf("failed to scan messages: %w", err)
	}

	out := make([]history.Message, 0, len(found))
	for _, r := range found {
		out = append(out, r.message())
	}
	return out, nil
}

// DeleteSession removes the session's messages and then the session in one
// transaction, so the cascade does not depend on foreign key enforcement.
func (s *Store) DeleteSession(ctx context.Context, id string) (deleted bool, err error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	query, args := s.builder.Delete(MessagesTable.Name).
		Where(entsql.EQ("session_id", id)).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return false, fmt.Errorf("failed to delete messages: %w", err)
	}

	query, args = s.builder.Delete(SessionsTable.Name).
		Where(entsql.EQ("id", id)).
		Query()
	var res entsql.Result
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListSessions(ctx context.Context, skip, limit int) ([]history.Session, error) {
	sel := s.builder.Select(sessionColumns...).
		From(s.builder.Table(SessionsTable.Name)).
		OrderBy(entsql.Desc("updated_at"), entsql.Asc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	if skip > 0 {
		if limit <= 0 {
			// Offset needs a limit on some dialects.
			sel.Limit(1<<31 - 1)
		}
		sel.Offset(skip)
	}

	query, args := sel.Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var found []sessionRow
	if err := entsql.ScanSlice(rows, &found); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}

	out := make([]history.Session, 0, len(found))
	for _, r := range found {
		out = append(out, r.session())
	}
	return out, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.drv.Close()
}

var _ history.Store = (*Store)(nil)

// Reset deletes every session and message.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{MessagesTable.Name, SessionsTable.Name} {
		query, args := s.builder.Delete(table).Query()
		if err := s.drv.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}
