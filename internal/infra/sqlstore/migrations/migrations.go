package migrations

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations holds the schema history; files register themselves in init.
var Migrations = migrate.NewMigrations()

// Table definitions are frozen copies of the schema at the time of each migration.

type user struct {
	bun.BaseModel `bun:"table:users"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,notnull,unique"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsStudent    bool      `bun:"is_student,notnull,default:false"`
	IsTeacher    bool      `bun:"is_teacher,notnull,default:false"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type student struct {
	bun.BaseModel `bun:"table:students"`

	UserID int64 `bun:"user_id,pk"`
}

type subject struct {
	bun.BaseModel `bun:"table:subjects"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

type studentInterest struct {
	bun.BaseModel `bun:"table:student_interests"`

	StudentID int64 `bun:"student_id,pk"`
	SubjectID int64 `bun:"subject_id,pk"`
}

type quiz struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        int64     `bun:"id,pk,autoincrement"`
	OwnerID   int64     `bun:"owner_id,notnull"`
	Name      string    `bun:"name,notnull"`
	SubjectID int64     `bun:"subject_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type question struct {
	bun.BaseModel `bun:"table:questions"`

	ID     int64  `bun:"id,pk,autoincrement"`
	QuizID int64  `bun:"quiz_id,notnull"`
	Text   string `bun:"text,notnull"`
}

type answer struct {
	bun.BaseModel `bun:"table:answers"`

	ID         int64  `bun:"id,pk,autoincrement"`
	QuestionID int64  `bun:"question_id,notnull"`
	Text       string `bun:"text,notnull"`
	IsCorrect  bool   `bun:"is_correct,notnull,default:false"`
}

type studentAnswer struct {
	bun.BaseModel `bun:"table:student_answers"`

	ID         int64     `bun:"id,pk,autoincrement"`
	StudentID  int64     `bun:"student_id,notnull,unique:student_answers_student_question"`
	QuestionID int64     `bun:"question_id,notnull,unique:student_answers_student_question"`
	AnswerID   int64     `bun:"answer_id,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type takenQuiz struct {
	bun.BaseModel `bun:"table:taken_quizzes"`

	ID        int64     `bun:"id,pk,autoincrement"`
	StudentID int64     `bun:"student_id,notnull,unique:taken_quizzes_student_quiz"`
	QuizID    int64     `bun:"quiz_id,notnull,unique:taken_quizzes_student_quiz"`
	Score     float64   `bun:"score,notnull"`
	Date      time.Time `bun:"date,notnull,default:current_timestamp"`
}

type table struct {
	model       interface{}
	foreignKeys []string
}

func createTables(ctx context.Context, db *bun.DB, tables ...table) error {
	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func dropTables(ctx context.Context, db *bun.DB, models ...interface{}) error {
	for _, model := range models {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func createIndex(ctx context.Context, db *bun.DB, model interface{}, name string, columns ...string) error {
	_, err := db.NewCreateIndex().Model(model).Index(name).Column(columns...).IfNotExists().Exec(ctx)
	return err
}
