package app

import (
	"context"
	"strings"
	"time"

	"classroom-service/internal/domain"
)

// QuizInput is the editable part of a quiz.
type QuizInput struct {
	Name      string `json:"name" validate:"required,max=255"`
	SubjectID int64  `json:"subjectId" validate:"required,gt=0"`
}

// QuestionInput is the editable part of a question. On update a nil Answers leaves the
// answers untouched; otherwise it is applied as one batch. New questions need answers.
type QuestionInput struct {
	Text    string                `json:"text" validate:"required,max=255"`
	Answers []domain.AnswerChange `json:"answers"`
}

// SubjectInput names a new subject.
type SubjectInput struct {
	Name string `json:"name" validate:"required,max=30"`
}

// AuthoringService lets teachers manage their own quizzes, questions and answers.
type AuthoringService struct {
	store   Store
	quizzes QuizReader
	now     func() time.Time
}

func NewAuthoringService(store Store, quizzes QuizReader) *AuthoringService {
	return &AuthoringService{store: store, quizzes: quizzes, now: time.Now}
}

// Subjects lists every subject.
func (s *AuthoringService) Subjects(ctx context.Context) ([]domain.Subject, error) {
	return s.store.ListSubjects(ctx)
}

// CreateSubject adds a subject; the name must be unique.
func (s *AuthoringService) CreateSubject(ctx context.Context, in SubjectInput) (domain.Subject, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return domain.Subject{}, err
	}
	subject := domain.Subject{Name: in.Name}
	if err := s.store.CreateSubject(ctx, &subject); err != nil {
		return domain.Subject{}, err
	}
	return subject, nil
}

// ListQuizzes lists the teacher's quizzes with question and attempt counts.
func (s *AuthoringService) ListQuizzes(ctx context.Context, ownerID int64) ([]domain.Quiz, error) {
	return s.store.ListQuizzes(ctx, domain.QuizFilter{OwnerID: ownerID})
}

func (s *AuthoringService) CreateQuiz(ctx context.Context, ownerID int64, in QuizInput) (domain.Quiz, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return domain.Quiz{}, err
	}
	subject, err := s.store.GetSubject(ctx, in.SubjectID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz := domain.Quiz{
		OwnerID:   ownerID,
		Name:      in.Name,
		SubjectID: subject.ID,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, err
	}
	quiz.SubjectName = subject.Name
	return quiz, nil
}

func (s *AuthoringService) UpdateQuiz(ctx context.Context, ownerID, quizID int64, in QuizInput) (domain.Quiz, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := ownedQuiz(ctx, s.store, ownerID, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	subject, err := s.store.GetSubject(ctx, in.SubjectID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.Name = in.Name
	quiz.SubjectID = subject.ID
	quiz.SubjectName = subject.Name
	if err := s.store.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.quizzes.Invalidate(ctx, quizID)
	return quiz, nil
}

// DeleteQuiz removes the quiz together with everything recorded against it.
func (s *AuthoringService) DeleteQuiz(ctx context.Context, ownerID, quizID int64) error {
	if _, err := ownedQuiz(ctx, s.store, ownerID, quizID); err != nil {
		return err
	}
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.quizzes.Invalidate(ctx, quizID)
	return nil
}

// QuizDetail returns the teacher's quiz with all questions and answers.
func (s *AuthoringService) QuizDetail(ctx context.Context, ownerID, quizID int64) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.OwnerID != ownerID {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *AuthoringService) ListQuestions(ctx context.Context, ownerID, quizID int64) ([]domain.Question, error) {
	quiz, err := s.QuizDetail(ctx, ownerID, quizID)
	if err != nil {
		return nil, err
	}
	return quiz.Questions, nil
}

func (s *AuthoringService) GetQuestion(ctx context.Context, ownerID, quizID, questionID int64) (domain.Question, error) {
	if _, err := ownedQuiz(ctx, s.store, ownerID, quizID); err != nil {
		return domain.Question{}, err
	}
	return questionOf(ctx, s.store, quizID, questionID)
}

// AddQuestion creates a question together with its answers. The answers must pass
// ValidateAnswerSet, so a question without answers is rejected.
func (s *AuthoringService) AddQuestion(ctx context.Context, ownerID, quizID int64, in QuestionInput) (domain.Question, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validateInput(in); err != nil {
		return domain.Question{}, err
	}
	var question domain.Question
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := ownedQuiz(ctx, tx, ownerID, quizID); err != nil {
			return err
		}
		question = domain.Question{QuizID: quizID, Text: in.Text}
		if err := tx.CreateQuestion(ctx, &question); err != nil {
			return err
		}
		// a question only exists with a valid answer set
		if err := applyAnswerChanges(ctx, tx, question, in.Answers); err != nil {
			return err
		}
		var err error
		question, err = tx.GetQuestion(ctx, question.ID)
		return err
	})
	if err != nil {
		return domain.Question{}, err
	}
	s.quizzes.Invalidate(ctx, quizID)
	return question, nil
}

// UpdateQuestion changes the question text and, when given, applies the answer batch.
// Either everything is saved or nothing is.
func (s *AuthoringService) UpdateQuestion(ctx context.Context, ownerID, quizID, questionID int64, in QuestionInput) (domain.Question, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validateInput(in); err != nil {
		return domain.Question{}, err
	}
	var question domain.Question
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := ownedQuiz(ctx, tx, ownerID, quizID); err != nil {
			return err
		}
		current, err := questionOf(ctx, tx, quizID, questionID)
		if err != nil {
			return err
		}
		current.Text = in.Text
		if err := tx.UpdateQuestion(ctx, current); err != nil {
			return err
		}
		if in.Answers != nil {
			if err := applyAnswerChanges(ctx, tx, current, in.Answers); err != nil {
				return err
			}
		}
		question, err = tx.GetQuestion(ctx, questionID)
		return err
	})
	if err != nil {
		return domain.Question{}, err
	}
	s.quizzes.Invalidate(ctx, quizID)
	return question, nil
}

// SaveAnswers applies one batch of answer additions, edits and deletions to a question.
func (s *AuthoringService) SaveAnswers(ctx context.Context, ownerID, quizID, questionID int64, changes []domain.AnswerChange) (domain.Question, error) {
	var question domain.Question
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := ownedQuiz(ctx, tx, ownerID, quizID); err != nil {
			return err
		}
		current, err := questionOf(ctx, tx, quizID, questionID)
		if err != nil {
			return err
		}
		if err := applyAnswerChanges(ctx, tx, current, changes); err != nil {
			return err
		}
		question, err = tx.GetQuestion(ctx, questionID)
		return err
	})
	if err != nil {
		return domain.Question{}, err
	}
	s.quizzes.Invalidate(ctx, quizID)
	return question, nil
}

func (s *AuthoringService) DeleteQuestion(ctx context.Context, ownerID, quizID, questionID int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := ownedQuiz(ctx, tx, ownerID, quizID); err != nil {
			return err
		}
		if _, err := questionOf(ctx, tx, quizID, questionID); err != nil {
			return err
		}
		return tx.DeleteQuestion(ctx, questionID)
	})
	if err != nil {
		return err
	}
	s.quizzes.Invalidate(ctx, quizID)
	return nil
}

// Results returns every finished attempt of the teacher's quiz with the average score.
func (s *AuthoringService) Results(ctx context.Context, ownerID, quizID int64) (domain.QuizResults, error) {
	quiz, err := ownedQuiz(ctx, s.store, ownerID, quizID)
	if err != nil {
		return domain.QuizResults{}, err
	}
	return quizResults(ctx, s.store, quiz, s.now())
}

// ownedQuiz hides other teachers' quizzes behind a not-found.
func ownedQuiz(ctx context.Context, store CatalogStore, ownerID, quizID int64) (domain.Quiz, error) {
	quiz, err := store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.OwnerID != ownerID {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func questionOf(ctx context.Context, store CatalogStore, quizID, questionID int64) (domain.Question, error) {
	question, err := store.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	if question.QuizID != quizID {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func applyAnswerChanges(ctx context.Context, tx Store, question domain.Question, changes []domain.AnswerChange) error {
	plan, err := ValidateAnswerSet(question.Answers, changes)
	if err != nil {
		return err
	}
	for _, id := range plan.Delete {
		if err := tx.DeleteAnswer(ctx, id); err != nil {
			return err
		}
	}
	for _, answer := range plan.Update {
		if err := tx.UpdateAnswer(ctx, answer); err != nil {
			return err
		}
	}
	for _, answer := range plan.Create {
		answer.QuestionID = question.ID
		if err := tx.CreateAnswer(ctx, &answer); err != nil {
			return err
		}
	}
	return nil
}
