package sqlstore

import (
	"context"

	"classroom-service/internal/domain"
	"github.com/uptrace/bun"
)

func (s *Store) UnansweredQuestions(ctx context.Context, studentID, quizID int64) ([]domain.Question, error) {
	var rows []questionRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("qn.quiz_id = ?", quizID).
		Where("NOT EXISTS (SELECT 1 FROM student_answers AS sa WHERE sa.question_id = qn.id AND sa.student_id = ?)", studentID).
		OrderExpr("qn.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return s.withAnswers(ctx, rows)
}

func (s *Store) CountCorrectAnswers(ctx context.Context, studentID, quizID int64) (int, error) {
	return s.db.NewSelect().
		Model((*studentAnswerRow)(nil)).
		Join("JOIN answers AS a ON a.id = sa.answer_id").
		Join("JOIN questions AS qn ON qn.id = a.question_id").
		Where("sa.student_id = ?", studentID).
		Where("qn.quiz_id = ?", quizID).
		Where("a.is_correct = ?", true).
		Count(ctx)
}

func (s *Store) CreateStudentAnswer(ctx context.Context, answer *domain.StudentAnswer) error {
	row := studentAnswerRow{
		StudentID:  answer.StudentID,
		QuestionID: answer.QuestionID,
		AnswerID:   answer.AnswerID,
		CreatedAt:  answer.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return mapUnique(err, domain.ErrAlreadyAnswered)
	}
	answer.ID = row.ID
	return nil
}

func (s *Store) CreateTakenQuiz(ctx context.Context, taken *domain.TakenQuiz) error {
	row := takenQuizRow{
		StudentID: taken.StudentID,
		QuizID:    taken.QuizID,
		Score:     taken.Score,
		Date:      taken.Date,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return mapUnique(err, domain.ErrQuizAlreadyTaken)
	}
	taken.ID = row.ID
	return nil
}

func (s *Store) GetTakenQuiz(ctx context.Context, studentID, quizID int64) (domain.TakenQuiz, error) {
	var view takenView
	err := s.selectTaken().
		Where("t.student_id = ?", studentID).
		Where("t.quiz_id = ?", quizID).
		Limit(1).
		Scan(ctx, &view)
	if err != nil {
		return domain.TakenQuiz{}, mapNotFound(err, domain.ErrNotFound)
	}
	return view.toDomain(), nil
}

func (s *Store) ListTakenQuizzes(ctx context.Context, filter domain.TakenQuizFilter) ([]domain.TakenQuiz, error) {
	q := s.selectTaken()
	if filter.StudentID != 0 {
		q = q.Where("t.student_id = ?", filter.StudentID)
	}
	if filter.QuizID != 0 {
		q = q.Where("t.quiz_id = ?", filter.QuizID)
	}
	var views []takenView
	if err := q.OrderExpr("t.id ASC").Scan(ctx, &views); err != nil {
		return nil, err
	}
	out := make([]domain.TakenQuiz, 0, len(views))
	for _, v := range views {
		out = append(out, v.toDomain())
	}
	return out, nil
}

func (s *Store) selectTaken() *bun.SelectQuery {
	return s.db.NewSelect().
		Model((*takenQuizRow)(nil)).
		ColumnExpr("t.id, t.student_id, t.quiz_id, t.score, t.date").
		ColumnExpr("qz.name AS quiz_name, s.name AS subject_name, u.username AS student_username").
		Join("JOIN quizzes AS qz ON qz.id = t.quiz_id").
		Join("JOIN subjects AS s ON s.id = qz.subject_id").
		Join("JOIN users AS u ON u.id = t.student_id")
}
