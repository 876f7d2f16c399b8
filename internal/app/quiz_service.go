package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"classroom-service/internal/domain"
)

// QuizService drives students through quizzes: what they may take, what is left to
// answer, recording answers and scoring finished attempts.
type QuizService struct {
	store Store
	feed  *ResultsFeed
	now   func() time.Time
}

func NewQuizService(store Store, feed *ResultsFeed) *QuizService {
	return &QuizService{store: store, feed: feed, now: time.Now}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(store Store, feed *ResultsFeed, now func() time.Time) *QuizService {
	return &QuizService{store: store, feed: feed, now: now}
}

// AvailableQuizzes lists quizzes in the student's subjects of interest that have questions
// and that the student has not finished yet.
func (s *QuizService) AvailableQuizzes(ctx context.Context, studentID int64) ([]domain.Quiz, error) {
	interests, err := s.store.ListInterests(ctx, studentID)
	if err != nil {
		return nil, err
	}
	subjectIDs := make([]int64, 0, len(interests))
	for _, subject := range interests {
		subjectIDs = append(subjectIDs, subject.ID)
	}
	return s.store.ListQuizzes(ctx, domain.QuizFilter{
		SubjectIDs:     subjectIDs,
		ExcludeTakenBy: studentID,
		WithQuestions:  true,
	})
}

// TakenQuizzes lists the student's completed attempts.
func (s *QuizService) TakenQuizzes(ctx context.Context, studentID int64) ([]domain.TakenQuiz, error) {
	return s.store.ListTakenQuizzes(ctx, domain.TakenQuizFilter{StudentID: studentID})
}

// UnansweredQuestions returns the quiz's questions the student has not answered yet.
// It always reads the store: the result is the only guard against answering twice.
func (s *QuizService) UnansweredQuestions(ctx context.Context, studentID, quizID int64) ([]domain.Question, error) {
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.store.UnansweredQuestions(ctx, studentID, quizID)
}

// CurrentQuestion returns the question to present next: the unanswered one with the lowest id.
func (s *QuizService) CurrentQuestion(ctx context.Context, studentID, quizID int64) (domain.QuizProgress, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizProgress{}, err
	}
	if err := ensureNotTaken(ctx, s.store, studentID, quizID); err != nil {
		return domain.QuizProgress{}, err
	}
	unanswered, err := s.store.UnansweredQuestions(ctx, studentID, quizID)
	if err != nil {
		return domain.QuizProgress{}, err
	}
	if len(unanswered) == 0 {
		log.Printf("quiz %d: student %d has no unanswered questions and no result", quizID, studentID)
		return domain.QuizProgress{}, domain.ErrNoQuestionsLeft
	}
	total, err := s.store.CountQuestions(ctx, quizID)
	if err != nil {
		return domain.QuizProgress{}, err
	}
	return progressOf(quiz, unanswered, total), nil
}

// SubmitAnswer records the student's choice. The answer must belong to a question the
// student has not answered yet. When it was the last one, the attempt is scored and a
// TakenQuiz is created in the same transaction.
func (s *QuizService) SubmitAnswer(ctx context.Context, studentID, quizID, answerID int64) (domain.SubmitResult, error) {
	var result domain.SubmitResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.LockStudent(ctx, studentID); err != nil {
			return err
		}
		quiz, err := tx.GetQuiz(ctx, quizID)
		if err != nil {
			return err
		}
		if err := ensureNotTaken(ctx, tx, studentID, quizID); err != nil {
			return err
		}
		unanswered, err := tx.UnansweredQuestions(ctx, studentID, quizID)
		if err != nil {
			return err
		}
		if len(unanswered) == 0 {
			log.Printf("quiz %d: student %d submitted with no unanswered questions and no result", quizID, studentID)
			return domain.ErrNoQuestionsLeft
		}

		answer, err := tx.GetAnswer(ctx, answerID)
		if errors.Is(err, domain.ErrNotFound) {
			return invalidChoice()
		}
		if err != nil {
			return err
		}
		if !containsQuestion(unanswered, answer.QuestionID) {
			return invalidChoice()
		}

		if err := tx.CreateStudentAnswer(ctx, &domain.StudentAnswer{
			StudentID:  studentID,
			QuestionID: answer.QuestionID,
			AnswerID:   answer.ID,
			CreatedAt:  s.now(),
		}); err != nil {
			return err
		}

		remaining, err := tx.UnansweredQuestions(ctx, studentID, quizID)
		if err != nil {
			return err
		}
		total, err := tx.CountQuestions(ctx, quizID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			next := progressOf(quiz, remaining, total)
			result = domain.SubmitResult{State: domain.StateInProgress, Next: &next}
			return nil
		}

		taken, err := s.finalize(ctx, tx, studentID, quiz, total)
		if err != nil {
			return err
		}
		result = domain.SubmitResult{State: domain.StateComplete, TakenQuiz: &taken}
		return nil
	})
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if result.State == domain.StateComplete {
		s.publishResults(ctx, quizID)
	}
	return result, nil
}

func (s *QuizService) finalize(ctx context.Context, tx Store, studentID int64, quiz domain.Quiz, total int) (domain.TakenQuiz, error) {
	correct, err := tx.CountCorrectAnswers(ctx, studentID, quiz.ID)
	if err != nil {
		return domain.TakenQuiz{}, err
	}
	score, err := Score(correct, total)
	if err != nil {
		return domain.TakenQuiz{}, err
	}
	taken := domain.TakenQuiz{
		StudentID:   studentID,
		QuizID:      quiz.ID,
		Score:       score,
		Date:        s.now(),
		QuizName:    quiz.Name,
		SubjectName: quiz.SubjectName,
	}
	if err := tx.CreateTakenQuiz(ctx, &taken); err != nil {
		return domain.TakenQuiz{}, err
	}
	return taken, nil
}

func (s *QuizService) publishResults(ctx context.Context, quizID int64) {
	if s.feed == nil || s.feed.Subscribers(quizID) == 0 {
		return
	}
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		log.Printf("quiz %d: load for results feed: %v", quizID, err)
		return
	}
	results, err := quizResults(ctx, s.store, quiz, s.now())
	if err != nil {
		log.Printf("quiz %d: results feed: %v", quizID, err)
		return
	}
	s.feed.Publish(results)
}

// Score is the percentage of correct answers, rounded to two decimals.
func Score(correct, total int) (float64, error) {
	if total <= 0 {
		return 0, fmt.Errorf("score: quiz has no questions")
	}
	if correct < 0 || correct > total {
		return 0, fmt.Errorf("score: %d correct answers out of %d questions", correct, total)
	}
	pct := float64(correct) * 100 / float64(total)
	return math.Round(pct*100) / 100, nil
}

func ensureNotTaken(ctx context.Context, store ProgressStore, studentID, quizID int64) error {
	_, err := store.GetTakenQuiz(ctx, studentID, quizID)
	switch {
	case err == nil:
		return domain.ErrQuizAlreadyTaken
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

func quizResults(ctx context.Context, store ProgressStore, quiz domain.Quiz, now time.Time) (domain.QuizResults, error) {
	taken, err := store.ListTakenQuizzes(ctx, domain.TakenQuizFilter{QuizID: quiz.ID})
	if err != nil {
		return domain.QuizResults{}, err
	}
	results := domain.QuizResults{
		Quiz:         quiz,
		TakenQuizzes: taken,
		TotalTaken:   len(taken),
		UpdatedAt:    now,
	}
	if len(taken) > 0 {
		sum := 0.0
		for _, t := range taken {
			sum += t.Score
		}
		results.AverageScore = math.Round(sum/float64(len(taken))*100) / 100
	}
	return results, nil
}

func progressOf(quiz domain.Quiz, unanswered []domain.Question, total int) domain.QuizProgress {
	return domain.QuizProgress{
		Quiz:      quiz,
		Question:  unanswered[0],
		Answered:  total - len(unanswered),
		Total:     total,
		Remaining: len(unanswered),
	}
}

func containsQuestion(questions []domain.Question, questionID int64) bool {
	for _, q := range questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}

func invalidChoice() error {
	return &domain.ValidationError{
		Code:    domain.CodeInvalidChoice,
		Message: "Select a valid choice. That choice is not one of the available choices.",
		Fields:  map[string]string{"answerId": "Select a valid choice."},
	}
}
