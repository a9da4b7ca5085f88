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

const answerColumns = `id, question_id, user_id, question_type, solved_during_test, time_taken, answer,
	verdict, analysis_sheet_id, submitted_at, created_at, updated_at`

const uniqueViolation = "23505"

// PostgresRepository stores answers in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *model.Answer) (*model.Answer, error) {
	stored := *a
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	stored.UpdatedAt = stored.CreatedAt

	args, err := answerArgs(&stored)
	if err != nil {
		return nil, err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO answers (`+answerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return r.Get(ctx, stored.ID)
		}
		return nil, fmt.Errorf("failed to insert answer: %w", err)
	}
	return &stored, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*model.Answer, error) {
	a, err := scanAnswer(r.db.QueryRow(ctx, `SELECT `+answerColumns+` FROM answers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*model.Answer, error) {
	var (
		where []string
		args  []any
	)
	for _, c := range []struct {
		expr  string
		value string
	}{
		{"question_id", f.QuestionID},
		{"user_id", f.UserID},
		{"verdict", f.Verdict},
		{"solved_during_test->>'test_id'", f.TestID},
	} {
		if c.value == "" {
			continue
		}
		args = append(args, c.value)
		where = append(where, fmt.Sprintf("%s = $%d", c.expr, len(args)))
	}

	query := `SELECT ` + answerColumns + ` FROM answers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	out := []*model.Answer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answers: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, a *model.Answer) (*model.Answer, error) {
	stored := *a
	stored.ID = id
	stored.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	args, err := answerArgs(&stored)
	if err != nil {
		return nil, err
	}
	// created_at is never rewritten
	args = append(args[:10], args[11])
	updated, err := scanAnswer(r.db.QueryRow(ctx, `UPDATE answers SET
		question_id = $2, user_id = $3, question_type = $4, solved_during_test = $5, time_taken = $6,
		answer = $7, verdict = $8, analysis_sheet_id = $9, submitted_at = $10, updated_at = $11
		WHERE id = $1
		RETURNING `+answerColumns, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update answer: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM answers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func answerArgs(a *model.Answer) ([]any, error) {
	var solved []byte
	if a.SolvedDuringTest != nil {
		var err error
		if solved, err = json.Marshal(a.SolvedDuringTest); err != nil {
			return nil, fmt.Errorf("failed to encode solved_during_test: %w", err)
		}
	}
	payload, err := json.Marshal(a.Answer)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer: %w", err)
	}

	return []any{
		a.ID, a.QuestionID, a.UserID, string(a.QuestionType), solved, a.TimeTaken, payload,
		string(a.Verdict), a.AnalysisSheetID, a.SubmittedAt, a.CreatedAt, a.UpdatedAt,
	}, nil
}

func scanAnswer(row pgx.Row) (*model.Answer, error) {
	var (
		a                     model.Answer
		questionType, verdict string
		solved, payload       []byte
	)
	err := row.Scan(&a.ID, &a.QuestionID, &a.UserID, &questionType, &solved, &a.TimeTaken, &payload,
		&verdict, &a.AnalysisSheetID, &a.SubmittedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.QuestionType = model.AnswerType(questionType)
	a.Verdict = model.Verdict(verdict)
	if solved != nil {
		a.SolvedDuringTest = &model.TestContext{}
		if err := json.Unmarshal(solved, a.SolvedDuringTest); err != nil {
			return nil, fmt.Errorf("failed to decode solved_during_test: %w", err)
		}
	}
	if a.Answer, err = model.UnmarshalAnswerPayload(a.QuestionType, payload); err != nil {
		return nil, fmt.Errorf("failed to decode answer: %w", err)
	}

	a.SubmittedAt = a.SubmittedAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
