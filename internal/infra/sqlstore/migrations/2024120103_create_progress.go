package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			err := createTables(ctx, db,
				table{model: (*studentAnswer)(nil), foreignKeys: []string{
					`("student_id") REFERENCES "students" ("user_id") ON DELETE CASCADE`,
					`("question_id") REFERENCES "questions" ("id") ON DELETE CASCADE`,
					`("answer_id") REFERENCES "answers" ("id") ON DELETE CASCADE`,
				}},
				table{model: (*takenQuiz)(nil), foreignKeys: []string{
					`("student_id") REFERENCES "students" ("user_id") ON DELETE CASCADE`,
					`("quiz_id") REFERENCES "quizzes" ("id") ON DELETE CASCADE`,
				}},
			)
			if err != nil {
				return err
			}
			return createIndex(ctx, db, (*takenQuiz)(nil), "taken_quizzes_quiz_id_idx", "quiz_id")
		},
		func(ctx context.Context, db *bun.DB) error {
			return dropTables(ctx, db, (*takenQuiz)(nil), (*studentAnswer)(nil))
		},
	)
}
