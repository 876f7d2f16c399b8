package sqlstore

import (
	"time"

	"classroom-service/internal/domain"
	"github.com/uptrace/bun"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username"`
	Email        string    `bun:"email"`
	PasswordHash string    `bun:"password_hash"`
	IsStudent    bool      `bun:"is_student"`
	IsTeacher    bool      `bun:"is_teacher"`
	CreatedAt    time.Time `bun:"created_at"`
}

type studentRow struct {
	bun.BaseModel `bun:"table:students,alias:st"`

	UserID int64 `bun:"user_id,pk"`
}

type subjectRow struct {
	bun.BaseModel `bun:"table:subjects,alias:s"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name"`
}

type studentInterestRow struct {
	bun.BaseModel `bun:"table:student_interests,alias:si"`

	StudentID int64 `bun:"student_id,pk"`
	SubjectID int64 `bun:"subject_id,pk"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID        int64     `bun:"id,pk,autoincrement"`
	OwnerID   int64     `bun:"owner_id"`
	Name      string    `bun:"name"`
	SubjectID int64     `bun:"subject_id"`
	CreatedAt time.Time `bun:"created_at"`
}

// quizView is a quizzes row with its subject name and counters.
type quizView struct {
	ID            int64     `bun:"id"`
	OwnerID       int64     `bun:"owner_id"`
	Name          string    `bun:"name"`
	SubjectID     int64     `bun:"subject_id"`
	CreatedAt     time.Time `bun:"created_at"`
	SubjectName   string    `bun:"subject_name"`
	QuestionCount int       `bun:"question_count"`
	TakenCount    int       `bun:"taken_count"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID     int64  `bun:"id,pk,autoincrement"`
	QuizID int64  `bun:"quiz_id"`
	Text   string `bun:"text"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID         int64  `bun:"id,pk,autoincrement"`
	QuestionID int64  `bun:"question_id"`
	Text       string `bun:"text"`
	IsCorrect  bool   `bun:"is_correct"`
}

type studentAnswerRow struct {
	bun.BaseModel `bun:"table:student_answers,alias:sa"`

	ID         int64     `bun:"id,pk,autoincrement"`
	StudentID  int64     `bun:"student_id"`
	QuestionID int64     `bun:"question_id"`
	AnswerID   int64     `bun:"answer_id"`
	CreatedAt  time.Time `bun:"created_at"`
}

type takenQuizRow struct {
	bun.BaseModel `bun:"table:taken_quizzes,alias:t"`

	ID        int64     `bun:"id,pk,autoincrement"`
	StudentID int64     `bun:"student_id"`
	QuizID    int64     `bun:"quiz_id"`
	Score     float64   `bun:"score"`
	Date      time.Time `bun:"date"`
}

// takenView is a taken_quizzes row with the names shown in listings.
type takenView struct {
	ID              int64     `bun:"id"`
	StudentID       int64     `bun:"student_id"`
	QuizID          int64     `bun:"quiz_id"`
	Score           float64   `bun:"score"`
	Date            time.Time `bun:"date"`
	QuizName        string    `bun:"quiz_name"`
	SubjectName     string    `bun:"subject_name"`
	StudentUsername string    `bun:"student_username"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		IsStudent:    r.IsStudent,
		IsTeacher:    r.IsTeacher,
		CreatedAt:    r.CreatedAt,
	}
}

func (v quizView) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:            v.ID,
		OwnerID:       v.OwnerID,
		Name:          v.Name,
		SubjectID:     v.SubjectID,
		SubjectName:   v.SubjectName,
		QuestionCount: v.QuestionCount,
		TakenCount:    v.TakenCount,
		CreatedAt:     v.CreatedAt,
	}
}

func (r answerRow) toDomain() domain.Answer {
	return domain.Answer{ID: r.ID, QuestionID: r.QuestionID, Text: r.Text, IsCorrect: r.IsCorrect}
}

func (v takenView) toDomain() domain.TakenQuiz {
	return domain.TakenQuiz{
		ID:              v.ID,
		StudentID:       v.StudentID,
		QuizID:          v.QuizID,
		Score:           v.Score,
		Date:            v.Date,
		QuizName:        v.QuizName,
		SubjectName:     v.SubjectName,
		StudentUsername: v.StudentUsername,
	}
}
