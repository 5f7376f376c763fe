package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interview-lab/interviewd/internal/interview"
)

// Postgres persists interviews and feedback in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interviews (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			job JSONB NOT NULL,
			questions JSONB NOT NULL,
			owner_email TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS feedback_records (
			id TEXT PRIMARY KEY,
			session_ref TEXT NOT NULL,
			question TEXT NOT NULL,
			expected_answer TEXT NOT NULL DEFAULT '',
			user_answer TEXT NOT NULL DEFAULT '',
			feedback TEXT NOT NULL DEFAULT '',
			rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			owner_email TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_session_created ON feedback_records (session_ref, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Postgres) SaveInterview(ctx context.Context, rec interview.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	job, err := json.Marshal(rec.Job)
	if err != nil {
		return fmt.Errorf("encode job context: %w", err)
	}
	questions, err := json.Marshal(rec.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO interviews (id, mode, job, questions, owner_email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET mode=$2, job=$3, questions=$4, owner_email=$5`,
		rec.ID,
		string(rec.Mode),
		job,
		questions,
		rec.OwnerEmail,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save interview: %w", err)
	}
	return nil
}

func (s *Postgres) GetInterview(ctx context.Context, id string) (interview.Record, error) {
	var (
		rec       interview.Record
		mode      string
		job       []byte
		questions []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, mode, job, questions, owner_email, created_at FROM interviews WHERE id=$1`,
		id,
	).Scan(&rec.ID, &mode, &job, &questions, &rec.OwnerEmail, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return interview.Record{}, ErrNotFound
		}
		return interview.Record{}, fmt.Errorf("get interview: %w", err)
	}

	rec.Mode = interview.Mode(mode)
	if err := json.Unmarshal(job, &rec.Job); err != nil {
		return interview.Record{}, fmt.Errorf("decode job context: %w", err)
	}
	if err := json.Unmarshal(questions, &rec.Questions); err != nil {
		return interview.Record{}, fmt.Errorf("decode questions: %w", err)
	}
	return rec, nil
}

func (s *Postgres) SaveFeedback(ctx context.Context, records []interview.FeedbackRecord) error {
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO feedback_records (id, session_ref, question, expected_answer, user_answer, feedback, rating, owner_email, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.ID,
			r.SessionRef,
			r.Question,
			r.ExpectedAnswer,
			r.UserAnswer,
			r.Feedback,
			r.Rating,
			r.OwnerEmail,
			r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("save feedback record: %w", err)
		}
	}
	return nil
}

func (s *Postgres) FeedbackBySession(ctx context.Context, sessionRef string) ([]interview.FeedbackRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_ref, question, expected_answer, user_answer, feedback, rating, owner_email, created_at
		 FROM feedback_records WHERE session_ref=$1 ORDER BY created_at ASC`,
		sessionRef,
	)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var out []interview.FeedbackRecord
	for rows.Next() {
		var r interview.FeedbackRecord
		if err := rows.Scan(&r.ID, &r.SessionRef, &r.Question, &r.ExpectedAnswer, &r.UserAnswer, &r.Feedback, &r.Rating, &r.OwnerEmail, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback rows: %w", err)
	}
	return out, nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
