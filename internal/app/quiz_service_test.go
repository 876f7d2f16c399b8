package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"classroom-service/internal/app"
	"classroom-service/internal/domain"
	"classroom-service/internal/infra/memory"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	store     *memory.Store
	feed      *app.ResultsFeed
	quizzes   *app.QuizService
	authoring *app.AuthoringService
	accounts  *app.AccountService
	teacher   domain.User
	subjects  map[string]domain.Subject
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	feed := app.NewResultsFeed()
	now := func() time.Time { return time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC) }
	e := &env{
		store:     store,
		feed:      feed,
		quizzes:   app.NewQuizServiceWithClock(store, feed, now),
		authoring: app.NewAuthoringService(store, memory.NewQuizRepository(store, time.Minute)),
		accounts:  app.NewAccountServiceWithCost(store, bcrypt.MinCost),
		subjects:  map[string]domain.Subject{},
	}
	for _, name := range []string{"Math", "History"} {
		subject, err := e.authoring.CreateSubject(ctx, app.SubjectInput{Name: name})
		if err != nil {
			t.Fatalf("create subject %s: %v", name, err)
		}
		e.subjects[name] = subject
	}
	teacher, err := e.accounts.SignUpTeacher(ctx, app.SignUpInput{
		Username: "mrsmith", Password: "chalkboard", PasswordConfirm: "chalkboard",
	})
	if err != nil {
		t.Fatalf("sign up teacher: %v", err)
	}
	e.teacher = teacher
	return e
}

func (e *env) student(t *testing.T, username string, interests ...string) domain.User {
	t.Helper()
	ids := make([]int64, 0, len(interests))
	for _, name := range interests {
		ids = append(ids, e.subjects[name].ID)
	}
	user, err := e.accounts.SignUpStudent(context.Background(), app.StudentSignUpInput{
		SignUpInput: app.SignUpInput{Username: username, Password: "homework1", PasswordConfirm: "homework1"},
		Interests:   ids,
	})
	if err != nil {
		t.Fatalf("sign up student: %v", err)
	}
	return user
}

// quiz creates a quiz with n questions; question i has the correct answer "right" and
// a wrong answer "wrong".
func (e *env) quiz(t *testing.T, name, subject string, n int) domain.Quiz {
	t.Helper()
	ctx := context.Background()
	quiz, err := e.authoring.CreateQuiz(ctx, e.teacher.ID, app.QuizInput{Name: name, SubjectID: e.subjects[subject].ID})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	for i := 0; i < n; i++ {
		_, err := e.authoring.AddQuestion(ctx, e.teacher.ID, quiz.ID, app.QuestionInput{
			Text: fmt.Sprintf("Question %d", i+1),
			Answers: []domain.AnswerChange{
				{Text: "right", IsCorrect: true},
				{Text: "wrong"},
			},
		})
		if err != nil {
			t.Fatalf("add question: %v", err)
		}
	}
	return quiz
}

func pick(q domain.Question, correct bool) int64 {
	for _, a := range q.Answers {
		if a.IsCorrect == correct {
			return a.ID
		}
	}
	return 0
}

func TestUnansweredDecreasesByOne(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quiz := e.quiz(t, "Algebra Basics", "Math", 3)
	student := e.student(t, "alice", "Math")

	prev := -1
	for {
		unanswered, err := e.quizzes.UnansweredQuestions(ctx, student.ID, quiz.ID)
		if err != nil {
			t.Fatalf("unanswered: %v", err)
		}
		if prev >= 0 && len(unanswered) != prev-1 {
			t.Fatalf("expected %d unanswered, got %d", prev-1, len(unanswered))
		}
		if len(unanswered) == 0 {
			break
		}
		prev = len(unanswered)
		if _, err := e.quizzes.SubmitAnswer(ctx, student.ID, quiz.ID, pick(unanswered[0], true)); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
}

func TestUnansweredIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quiz := e.quiz(t, "Algebra Basics", "Math", 3)
	student := e.student(t, "alice", "Math")

	first, err := e.quizzes.UnansweredQuestions(ctx, student.ID, quiz.ID)
	if err != nil {
		t.Fatalf("unanswered: %v", err)
	}
	second, err := e.quizzes.UnansweredQuestions(ctx, student.ID, quiz.ID)
	if err != nil {
		t.Fatalf("unanswered again: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected same set, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("expected same order, got %d and %d at %d", first[i].ID, second[i].ID, i)
		}
	}
}

func TestCurrentQuestionIsLowestID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quiz := e.quiz(t, "Algebra Basics", "Math", 3)
	student := e.student(t, "alice", "Math")

	progress, err := e.quizzes.CurrentQuestion(ctx, student.ID, quiz.ID)
	if err != nil {
		t.Fatalf("current question: %v", err)
	}
	unanswered, _ := e.quizzes.UnansweredQuestions(ctx, student.ID, quiz.ID)
	if progress.Question.ID != unanswered[0].ID {
		t.Fatalf("expected lowest id question %d, got %d", unanswered[0].ID, progress.Question.ID)
	}
	if progress.Total != 3 || progress.Answered != 0 || progress.Remaining != 3 {
		t.Fatalf("unexpected progress: %+v", progress)
	}
	if progress.Question.Answers[0].Text != "right" || progress.Question.Answers[1].Text != "wrong" {
		t.Fatalf("expected answers ordered by text, got %+v", progress.Question.Answers)
	}
}

func TestScoreThreeOfFour(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quiz := e.quiz(t, "Algebra Basics", "Math", 4)
	student := e.student(t, "alice", "Math")

	var result domain.SubmitResult
	for i := 0; i < 4; i++ {
		unanswered, err := e.quizzes.UnansweredQuestions(ctx, student.ID, quiz.ID)
		if err != nil {
			t.Fatalf("unanswered: %v", err)
		}
		result, err = e.quizzes.SubmitAnswer(ctx, student.ID, quiz.ID, pick(unanswered[0], i != 2))
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if i < 3 && result.State != domain.StateInProgress {
			t.Fatalf("expected in progress after %d answers, got %s", i+1, result.State)
		}
	}
	if result.State != domain.StateComplete || result.TakenQuiz == nil {
		t.Fatalf("expected complete with taken quiz, got %+v", result)
	}
	if result.TakenQuiz.Score != 75 {
		t.Fatalf("expected score 75, got %v", result.TakenQuiz.Score)
	}

	taken, err := e.quizzes.TakenQuizzes(ctx, student.ID)
	if err != nil {
		t.Fatalf("taken quizzes: %v", err)
	}
	if len(taken) != 1 || taken[0].QuizName != "Algebra Basics" {
		t.Fatalf("unexpected taken list: %+v", taken)
	}
}

func TestScore(t *testing.T) {
	cases := []struct {
		correct, total int
		want           float64
	}{
		{3, 4, 75},
		{0, 5, 0},
		{5, 5, 100},
		{1, 3, 33.33},
		{2, 3, 66.67},
	}
	for _, tc := range cases {
		got, err := app.Score(tc.correct, tc.total)
		if err != nil {
			t.Fatalf("score(%d, %d): %v", tc.correct, tc.total, err)
		}
		if got != tc.want {
			t.Fatalf("score(%d, %d) = %v, want %v", tc.correct, tc.total, got, tc.want)
		}
	}
	if _, err := app.Score(0, 0); err == nil {
		t.Fatalf("expected error for a quiz without questions")
	}
	if _, err := app.Score(5, 4); err == nil {
		t.Fatalf("expected error for more correct answers than questions")
	}
}

func TestSubmitRejectsAnswerOutsideUnansweredSet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quiz := e.quiz(t, "Algebra Basics", "Math", 2)
	other := e.quiz(t, "Geometry", "Math", 1)
	student := e.student(t, "alice", "Math")

	otherQuiz, _ := e.store.LoadQuiz(ctx, other.ID)
	foreign := pick(otherQuiz.Questions[0], true)
	if _, err := e.quizzes.SubmitAnswer(ctx, student.ID, quiz.ID, foreign); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected validation error for foreign answer, got %v", err)
	}
	if _, err := e.quizzes.SubmitAnswer(ctx, student.ID, quiz.ID, 99999); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected validation error for unknown answer, got %v", err)
	}

	unanswered, _ := e.quizzes.UnansweredQuestions(ctx, student.ID, quiz.ID)
	answered := unanswered[0]
	if _, err := e.quizzes.SubmitAnswer(ctx, student.ID, quiz.ID, pick(answered, true)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err := e.quizzes.SubmitAnswer(ctx, student.ID, quiz.ID, pick(answered, false))
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Code != domain.CodeInvalidChoice {
		t.Fatalf("expected invalid choice for an answered question, got %v", err)
	}

	after, _ := e.quizzes.UnansweredQuestions(ctx, student.ID, quiz.ID)
	if len(after) != 1 {
		t.Fatalf("rejected submissions must not change state, %d unanswered", len(after))
	}
}

func TestCompletedQuizCannotBeReentered(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quiz := e.quiz(t, "Algebra Basics", "Math", 1)
	student := e.student(t, "alice", "Math")

	unanswered, _ := e.quizzes.UnansweredQuestions(ctx, student.ID, quiz.ID)
	if _, err := e.quizzes.SubmitAnswer(ctx, student.ID, quiz.ID, pick(unanswered[0], true)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := e.quizzes.CurrentQuestion(ctx, student.ID, quiz.ID); !errors.Is(err, domain.ErrQuizAlreadyTaken) {
		t.Fatalf("expected quiz already taken, got %v", err)
	}
	if _, err := e.quizzes.SubmitAnswer(ctx, student.ID, quiz.ID, pick(unanswered[0], false)); !errors.Is(err, domain.ErrQuizAlreadyTaken) {
		t.Fatalf("expected quiz already taken on submit, got %v", err)
	}
}

func TestQuizWithoutQuestionsIsLogicError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quiz := e.quiz(t, "Empty", "Math", 0)
	student := e.student(t, "alice", "Math")

	if _, err := e.quizzes.CurrentQuestion(ctx, student.ID, quiz.ID); !errors.Is(err, domain.ErrNoQuestionsLeft) {
		t.Fatalf("expected no questions left, got %v", err)
	}
}

func TestConcurrentSubmitsFinalizeOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quiz := e.quiz(t, "Algebra Basics", "Math", 1)
	student := e.student(t, "alice", "Math")
	unanswered, _ := e.quizzes.UnansweredQuestions(ctx, student.ID, quiz.ID)
	answerID := pick(unanswered[0], true)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.quizzes.SubmitAnswer(ctx, student.ID, quiz.ID, answerID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidInput):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one accepted submission, got %d", succeeded)
	}
	taken, _ := e.quizzes.TakenQuizzes(ctx, student.ID)
	if len(taken) != 1 {
		t.Fatalf("expected one taken quiz, got %d", len(taken))
	}
}

func TestAvailableQuizzesFollowInterests(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	algebra := e.quiz(t, "Algebra Basics", "Math", 1)
	e.quiz(t, "History 101", "History", 1)
	e.quiz(t, "Draft", "Math", 0)
	student := e.student(t, "alice", "Math")

	available, err := e.quizzes.AvailableQuizzes(ctx, student.ID)
	if err != nil {
		t.Fatalf("available quizzes: %v", err)
	}
	if len(available) != 1 || available[0].ID != algebra.ID {
		t.Fatalf("expected only Algebra Basics, got %+v", available)
	}

	unanswered, _ := e.quizzes.UnansweredQuestions(ctx, student.ID, algebra.ID)
	if _, err := e.quizzes.SubmitAnswer(ctx, student.ID, algebra.ID, pick(unanswered[0], true)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	available, err = e.quizzes.AvailableQuizzes(ctx, student.ID)
	if err != nil {
		t.Fatalf("available quizzes: %v", err)
	}
	if len(available) != 0 {
		t.Fatalf("expected taken quiz to disappear, got %+v", available)
	}
}

func TestFinalizationPublishesResults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quiz := e.quiz(t, "Algebra Basics", "Math", 1)
	student := e.student(t, "alice", "Math")

	updates, cancel := e.feed.Subscribe(quiz.ID)
	defer cancel()

	unanswered, _ := e.quizzes.UnansweredQuestions(ctx, student.ID, quiz.ID)
	if _, err := e.quizzes.SubmitAnswer(ctx, student.ID, quiz.ID, pick(unanswered[0], true)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	select {
	case results := <-updates:
		if results.TotalTaken != 1 || results.AverageScore != 100 {
			t.Fatalf("unexpected results: %+v", results)
		}
		if results.TakenQuizzes[0].StudentUsername != "alice" {
			t.Fatalf("expected student name in results, got %+v", results.TakenQuizzes[0])
		}
	case <-time.After(time.Second):
		t.Fatalf("expected results update")
	}
}
