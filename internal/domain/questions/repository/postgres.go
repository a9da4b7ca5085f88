package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IT-Nick/question-bank/internal/domain/errs"
	"github.com/IT-Nick/question-bank/internal/domain/model"
)

const questionColumns = `id, question_number, subject, for_class, topic, difficulty, origin, test_info,
	question_text, question_attachments, answer_metadata, tags, created_by, answer_attachments,
	created_at, updated_at`

// uniqueViolation SQLSTATE for a duplicate primary key.
const uniqueViolation = "23505"

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxDB is satisfied by *pgxpool.Pool.
type pgxDB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores questions in PostgreSQL; nested fields are JSONB.
type PostgresRepository struct {
	db pgxDB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create numbers and inserts the question in a single transaction.
func (r *PostgresRepository) Create(ctx context.Context, q *model.Question) (*model.Question, error) {
	if q.ID != "" {
		existing, err := r.Get(ctx, q.ID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
	}

	stored := *q
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	stored.UpdatedAt = stored.CreatedAt

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stored.QuestionNumber, err = nextSequenceNumber(ctx, tx, CounterKey)
	if err != nil {
		return nil, err
	}

	args, err := questionArgs(&stored)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `INSERT INTO questions (`+questionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// a concurrent create with the same id won; roll back our number
			_ = tx.Rollback(ctx)
			return r.Get(ctx, stored.ID)
		}
		return nil, fmt.Errorf("failed to insert question: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit question: %w", err)
	}
	return &stored, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*model.Question, error) {
	q, err := scanQuestion(r.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*model.Question, error) {
	var (
		where []string
		args  []any
	)
	for _, c := range []struct {
		column string
		value  string
	}{
		{"subject", f.Subject},
		{"for_class", f.ForClass},
		{"topic", f.Topic},
		{"difficulty", f.Difficulty},
		{"origin", f.Origin},
	} {
		if c.value == "" {
			continue
		}
		args = append(args, c.value)
		where = append(where, fmt.Sprintf("%s = $%d", c.column, len(args)))
	}

	query := `SELECT ` + questionColumns + ` FROM questions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY question_number"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	out := []*model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, q *model.Question) (*model.Question, error) {
	stored := *q
	stored.ID = id
	stored.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	args, err := questionArgs(&stored)
	if err != nil {
		return nil, err
	}
	// question_number and created_at are never rewritten
	args = append(append([]any{args[0]}, args[2:14]...), args[15])
	updated, err := scanQuestion(r.db.QueryRow(ctx, `UPDATE questions SET
		subject = $2, for_class = $3, topic = $4, difficulty = $5, origin = $6, test_info = $7,
		question_text = $8, question_attachments = $9, answer_metadata = $10, tags = $11,
		created_by = $12, answer_attachments = $13, updated_at = $14
		WHERE id = $1
		RETURNING `+questionColumns, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) NextSequenceNumber(ctx context.Context, counterKey string) (int64, error) {
	return nextSequenceNumber(ctx, r.db, counterKey)
}

// nextSequenceNumber the upsert holds the counter row lock until q's
// transaction ends, so concurrent callers are serialised.
func nextSequenceNumber(ctx context.Context, q querier, counterKey string) (int64, error) {
	var n int64
	err := q.QueryRow(ctx, `INSERT INTO counters (key, value) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET value = counters.value + 1
		RETURNING value`, counterKey).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", counterKey, err)
	}
	return n, nil
}

func questionArgs(q *model.Question) ([]any, error) {
	var testInfo []byte
	if q.TestInfo != nil {
		var err error
		if testInfo, err = json.Marshal(q.TestInfo); err != nil {
			return nil, fmt.Errorf("failed to encode test_info: %w", err)
		}
	}

	q.WithDefaults()
	attachments, err := json.Marshal(q.QuestionAttachments)
	if err != nil {
		return nil, fmt.Errorf("failed to encode question_attachments: %w", err)
	}
	meta, err := json.Marshal(q.AnswerMetadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer_metadata: %w", err)
	}
	tags, err := json.Marshal(q.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	answerAttachments, err := json.Marshal(q.AnswerAttachments)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer_attachments: %w", err)
	}

	return []any{
		q.ID, q.QuestionNumber, string(q.Subject), string(q.ForClass), q.Topic, string(q.Difficulty),
		string(q.Origin), testInfo, q.QuestionText, attachments, meta, tags, q.CreatedBy,
		answerAttachments, q.CreatedAt, q.UpdatedAt,
	}, nil
}

func scanQuestion(row pgx.Row) (*model.Question, error) {
	var (
		q                                                    model.Question
		subject, forClass, difficulty, origin                string
		testInfo, attachments, meta, tags, answerAttachments []byte
	)
	err := row.Scan(&q.ID, &q.QuestionNumber, &subject, &forClass, &q.Topic, &difficulty, &origin, &testInfo,
		&q.QuestionText, &attachments, &meta, &tags, &q.CreatedBy, &answerAttachments,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}

	q.Subject = model.Subject(subject)
	q.ForClass = model.ClassLevel(forClass)
	q.Difficulty = model.Difficulty(difficulty)
	q.Origin = model.Origin(origin)

	if testInfo != nil {
		if err := json.Unmarshal(testInfo, &q.TestInfo); err != nil {
			return nil, fmt.Errorf("failed to decode test_info: %w", err)
		}
	}
	if err := json.Unmarshal(attachments, &q.QuestionAttachments); err != nil {
		return nil, fmt.Errorf("failed to decode question_attachments: %w", err)
	}
	if err := json.Unmarshal(tags, &q.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if err := json.Unmarshal(answerAttachments, &q.AnswerAttachments); err != nil {
		return nil, fmt.Errorf("failed to decode answer_attachments: %w", err)
	}
	if q.AnswerMetadata, err = model.UnmarshalAnswerMetadata(meta); err != nil {
		return nil, fmt.Errorf("failed to decode answer_metadata: %w", err)
	}

	q.CreatedAt = q.CreatedAt.UTC()
	q.UpdatedAt = q.UpdatedAt.UTC()
	return q.WithDefaults(), nil
}
