package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			err := createTables(ctx, db,
				table{model: (*quiz)(nil), foreignKeys: []string{
					`("owner_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
					`("subject_id") REFERENCES "subjects" ("id") ON DELETE CASCADE`,
				}},
				table{model: (*question)(nil), foreignKeys: []string{
					`("quiz_id") REFERENCES "quizzes" ("id") ON DELETE CASCADE`,
				}},
				table{model: (*answer)(nil), foreignKeys: []string{
					`("question_id") REFERENCES "questions" ("id") ON DELETE CASCADE`,
				}},
			)
			if err != nil {
				return err
			}
			if err := createIndex(ctx, db, (*quiz)(nil), "quizzes_subject_id_idx", "subject_id"); err != nil {
				return err
			}
			if err := createIndex(ctx, db, (*question)(nil), "questions_quiz_id_idx", "quiz_id"); err != nil {
				return err
			}
			return createIndex(ctx, db, (*answer)(nil), "answers_question_id_idx", "question_id")
		},
		func(ctx context.Context, db *bun.DB) error {
			return dropTables(ctx, db, (*answer)(nil), (*question)(nil), (*quiz)(nil))
		},
	)
}
