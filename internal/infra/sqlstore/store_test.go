package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"classroom-service/internal/app"
	"classroom-service/internal/domain"
)

var dbSeq atomic.Int64

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:classroom_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := Open(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

type fixture struct {
	teacher  domain.User
	student  domain.User
	subject  domain.Subject
	quiz     domain.Quiz
	question []domain.Question
}

func seed(t *testing.T, store *Store) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture
	f.subject = domain.Subject{Name: "Math"}
	if err := store.CreateSubject(ctx, &f.subject); err != nil {
		t.Fatalf("create subject: %v", err)
	}
	f.teacher = domain.User{Username: "teacher", PasswordHash: "x", IsTeacher: true, CreatedAt: time.Now()}
	if err := store.CreateUser(ctx, &f.teacher); err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	f.student = domain.User{Username: "student", PasswordHash: "x", IsStudent: true, CreatedAt: time.Now()}
	if err := store.CreateUser(ctx, &f.student); err != nil {
		t.Fatalf("create student user: %v", err)
	}
	if err := store.CreateStudent(ctx, f.student.ID); err != nil {
		t.Fatalf("create student: %v", err)
	}
	if err := store.SetInterests(ctx, f.student.ID, []int64{f.subject.ID}); err != nil {
		t.Fatalf("set interests: %v", err)
	}
	f.quiz = domain.Quiz{OwnerID: f.teacher.ID, Name: "Arithmetic", SubjectID: f.subject.ID, CreatedAt: time.Now()}
	if err := store.CreateQuiz(ctx, &f.quiz); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	for i, text := range []string{"1 + 1?", "2 + 2?"} {
		q := domain.Question{QuizID: f.quiz.ID, Text: text}
		if err := store.CreateQuestion(ctx, &q); err != nil {
			t.Fatalf("create question: %v", err)
		}
		right := fmt.Sprint(2 * (i + 1))
		for _, a := range []domain.Answer{{Text: right, IsCorrect: true}, {Text: "0"}} {
			a.QuestionID = q.ID
			if err := store.CreateAnswer(ctx, &a); err != nil {
				t.Fatalf("create answer: %v", err)
			}
		}
		full, err := store.GetQuestion(ctx, q.ID)
		if err != nil {
			t.Fatalf("get question: %v", err)
		}
		f.question = append(f.question, full)
	}
	return f
}

func TestStoreLoadQuizOrdering(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)

	quiz, err := store.LoadQuiz(context.Background(), f.quiz.ID)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if quiz.SubjectName != "Math" || len(quiz.Questions) != 2 {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	if quiz.Questions[0].ID >= quiz.Questions[1].ID {
		t.Fatalf("expected questions ordered by id")
	}
	answers := quiz.Questions[0].Answers
	if len(answers) != 2 || answers[0].Text != "0" || answers[1].Text != "2" {
		t.Fatalf("expected answers ordered by text, got %+v", answers)
	}
}

func TestStoreUnansweredAndScoring(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	ctx := context.Background()

	first := f.question[0]
	correct := first.Answers[1]
	if !correct.IsCorrect {
		t.Fatalf("fixture: expected answer %q to be correct", correct.Text)
	}
	if err := store.CreateStudentAnswer(ctx, &domain.StudentAnswer{
		StudentID: f.student.ID, QuestionID: first.ID, AnswerID: correct.ID, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("create student answer: %v", err)
	}
	err := store.CreateStudentAnswer(ctx, &domain.StudentAnswer{
		StudentID: f.student.ID, QuestionID: first.ID, AnswerID: first.Answers[0].ID, CreatedAt: time.Now(),
	})
	if !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}

	unanswered, err := store.UnansweredQuestions(ctx, f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("unanswered: %v", err)
	}
	if len(unanswered) != 1 || unanswered[0].ID != f.question[1].ID {
		t.Fatalf("expected only second question unanswered, got %+v", unanswered)
	}

	n, err := store.CountCorrectAnswers(ctx, f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("count correct: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 correct answer, got %d", n)
	}
}

func TestStoreTakenQuizUnique(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	ctx := context.Background()

	taken := domain.TakenQuiz{StudentID: f.student.ID, QuizID: f.quiz.ID, Score: 50, Date: time.Now()}
	if err := store.CreateTakenQuiz(ctx, &taken); err != nil {
		t.Fatalf("create taken quiz: %v", err)
	}
	again := domain.TakenQuiz{StudentID: f.student.ID, QuizID: f.quiz.ID, Score: 100, Date: time.Now()}
	if err := store.CreateTakenQuiz(ctx, &again); !errors.Is(err, domain.ErrQuizAlreadyTaken) {
		t.Fatalf("expected quiz already taken, got %v", err)
	}

	got, err := store.GetTakenQuiz(ctx, f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("get taken quiz: %v", err)
	}
	if got.Score != 50 || got.QuizName != "Arithmetic" || got.StudentUsername != "student" {
		t.Fatalf("unexpected taken quiz: %+v", got)
	}

	available, err := store.ListQuizzes(ctx, domain.QuizFilter{
		SubjectIDs:     []int64{f.subject.ID},
		ExcludeTakenBy: f.student.ID,
		WithQuestions:  true,
	})
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(available) != 0 {
		t.Fatalf("expected taken quiz excluded, got %+v", available)
	}
}

func TestStoreUsernameTaken(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	err := store.CreateUser(context.Background(), &domain.User{Username: "teacher", PasswordHash: "x"})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
}

func TestStoreWithinTxRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context, tx app.Store) error {
		user := domain.User{Username: "alice", PasswordHash: "x", IsStudent: true}
		if err := tx.CreateUser(ctx, &user); err != nil {
			return err
		}
		if err := tx.CreateStudent(ctx, user.ID); err != nil {
			return err
		}
		return tx.SetInterests(ctx, user.ID, []int64{404})
	})
	if !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected subject not found, got %v", err)
	}
	if _, err := store.GetUserByUsername(ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user rolled back, got %v", err)
	}
}

func TestStoreDeleteQuizCascades(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	ctx := context.Background()

	if err := store.DeleteQuiz(ctx, f.quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := store.GetQuestion(ctx, f.question[0].ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question cascaded, got %v", err)
	}
	if _, err := store.GetAnswer(ctx, f.question[0].Answers[0].ID); !errors.Is(err, domain.ErrAnswerNotFound) {
		t.Fatalf("expected answer cascaded, got %v", err)
	}
	if err := store.DeleteQuiz(ctx, f.quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found on second delete, got %v", err)
	}
}

func TestStoreEmptySubjectFilterMatchesNothing(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)

	quizzes, err := store.ListQuizzes(context.Background(), domain.QuizFilter{SubjectIDs: []int64{}})
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(quizzes) != 0 {
		t.Fatalf("expected no quizzes, got %d", len(quizzes))
	}

	owned, err := store.ListQuizzes(context.Background(), domain.QuizFilter{OwnerID: f.teacher.ID})
	if err != nil {
		t.Fatalf("list owned quizzes: %v", err)
	}
	if len(owned) != 1 || owned[0].QuestionCount != 2 || owned[0].TakenCount != 0 {
		t.Fatalf("unexpected owned listing: %+v", owned)
	}
}
