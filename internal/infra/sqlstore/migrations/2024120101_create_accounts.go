package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return createTables(ctx, db,
				table{model: (*user)(nil)},
				table{model: (*student)(nil), foreignKeys: []string{
					`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
				}},
				table{model: (*subject)(nil)},
				table{model: (*studentInterest)(nil), foreignKeys: []string{
					`("student_id") REFERENCES "students" ("user_id") ON DELETE CASCADE`,
					`("subject_id") REFERENCES "subjects" ("id") ON DELETE CASCADE`,
				}},
			)
		},
		func(ctx context.Context, db *bun.DB) error {
			return dropTables(ctx, db,
				(*studentInterest)(nil),
				(*subject)(nil),
				(*student)(nil),
				(*user)(nil),
			)
		},
	)
}
