package app

import (
	"context"

	"classroom-service/internal/domain"
)

// CatalogStore persists subjects, quizzes, questions and answers.
type CatalogStore interface {
	CreateSubject(ctx context.Context, subject *domain.Subject) error
	GetSubject(ctx context.Context, subjectID int64) (domain.Subject, error)
	ListSubjects(ctx context.Context) ([]domain.Subject, error)

	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	// DeleteQuiz removes the quiz with its questions, answers and recorded progress.
	DeleteQuiz(ctx context.Context, quizID int64) error
	// GetQuiz returns the quiz header (no questions) with its subject name.
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error)
	// LoadQuiz returns the quiz with questions by id and answers by text.
	LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	CountQuestions(ctx context.Context, quizID int64) (int, error)

	CreateQuestion(ctx context.Context, question *domain.Question) error
	UpdateQuestion(ctx context.Context, question domain.Question) error
	DeleteQuestion(ctx context.Context, questionID int64) error
	// GetQuestion returns the question with its answers ordered by text.
	GetQuestion(ctx context.Context, questionID int64) (domain.Question, error)

	CreateAnswer(ctx context.Context, answer *domain.Answer) error
	UpdateAnswer(ctx context.Context, answer domain.Answer) error
	DeleteAnswer(ctx context.Context, answerID int64) error
	GetAnswer(ctx context.Context, answerID int64) (domain.Answer, error)
}

// AccountStore persists users, student profiles and their interests.
type AccountStore interface {
	// CreateUser fails with domain.ErrUsernameTaken on a duplicate username.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID int64) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateStudent(ctx context.Context, userID int64) error
	// SetInterests replaces the student's interests and fails with
	// domain.ErrSubjectNotFound if any subject is unknown.
	SetInterests(ctx context.Context, studentID int64, subjectIDs []int64) error
	ListInterests(ctx context.Context, studentID int64) ([]domain.Subject, error)
}

// ProgressStore persists what students answered and the quizzes they finished.
type ProgressStore interface {
	// UnansweredQuestions lists the quiz's questions the student has no answer for,
	// ordered by question id, each with answers ordered by text.
	UnansweredQuestions(ctx context.Context, studentID, quizID int64) ([]domain.Question, error)
	CountCorrectAnswers(ctx context.Context, studentID, quizID int64) (int, error)
	// CreateStudentAnswer fails with domain.ErrAlreadyAnswered when (student, question) exists.
	CreateStudentAnswer(ctx context.Context, answer *domain.StudentAnswer) error
	// CreateTakenQuiz fails with domain.ErrQuizAlreadyTaken when (student, quiz) exists.
	CreateTakenQuiz(ctx context.Context, taken *domain.TakenQuiz) error
	GetTakenQuiz(ctx context.Context, studentID, quizID int64) (domain.TakenQuiz, error)
	ListTakenQuizzes(ctx context.Context, filter domain.TakenQuizFilter) ([]domain.TakenQuiz, error)
	// LockStudent serializes concurrent writers for one student until the transaction ends.
	LockStudent(ctx context.Context, studentID int64) error
}

// Store is the relational persistence the use cases run against.
type Store interface {
	CatalogStore
	AccountStore
	ProgressStore

	// WithinTx runs fn against a transactional view of the store; an error from fn
	// rolls back every write fn made.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// QuizReader serves full quiz content from a cache in front of the store.
type QuizReader interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID int64)
}
