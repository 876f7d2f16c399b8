package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"classroom-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader reads a whole quiz (questions by id, answers by text) as one JSON document
// straight from Postgres. It backs the quiz cache when the database is Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

const loadQuizSQL = `
SELECT json_build_object(
	'id', qz.id,
	'ownerId', qz.owner_id,
	'name', qz.name,
	'subjectId', qz.subject_id,
	'subjectName', s.name,
	'createdAt', qz.created_at,
	'questions', COALESCE((
		SELECT json_agg(json_build_object(
			'id', qn.id,
			'quizId', qn.quiz_id,
			'text', qn.text,
			'answers', COALESCE((
				SELECT json_agg(json_build_object(
					'id', a.id,
					'questionId', a.question_id,
					'text', a.text,
					'isCorrect', a.is_correct
				) ORDER BY a.text, a.id)
				FROM answers AS a
				WHERE a.question_id = qn.id
			), '[]'::json)
		) ORDER BY qn.id)
		FROM questions AS qn
		WHERE qn.quiz_id = qz.id
	), '[]'::json)
)
FROM quizzes AS qz
JOIN subjects AS s ON s.id = qz.subject_id
WHERE qz.id = $1`

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, loadQuizSQL, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.QuestionCount = len(quiz.Questions)
	return quiz, nil
}
