package sqlstore

import (
	"context"

	"classroom-service/internal/domain"
	"github.com/uptrace/bun"
)

func (s *Store) CreateSubject(ctx context.Context, subject *domain.Subject) error {
	row := subjectRow{Name: subject.Name}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return mapUnique(err, domain.ErrConflict)
	}
	subject.ID = row.ID
	return nil
}

func (s *Store) GetSubject(ctx context.Context, subjectID int64) (domain.Subject, error) {
	var row subjectRow
	if err := s.db.NewSelect().Model(&row).Where("s.id = ?", subjectID).Scan(ctx); err != nil {
		return domain.Subject{}, mapNotFound(err, domain.ErrSubjectNotFound)
	}
	return domain.Subject{ID: row.ID, Name: row.Name}, nil
}

func (s *Store) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	var rows []subjectRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("s.name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Subject, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Subject{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	row := quizRow{
		OwnerID:   quiz.OwnerID,
		Name:      quiz.Name,
		SubjectID: quiz.SubjectID,
		CreatedAt: quiz.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return err
	}
	quiz.ID = row.ID
	return nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	res, err := s.db.NewUpdate().
		Model((*quizRow)(nil)).
		Set("name = ?", quiz.Name).
		Set("subject_id = ?", quiz.SubjectID).
		Where("id = ?", quiz.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrQuizNotFound)
}

// DeleteQuiz relies on ON DELETE CASCADE for questions, answers and progress.
func (s *Store) DeleteQuiz(ctx context.Context, quizID int64) error {
	res, err := s.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrQuizNotFound)
}

func (s *Store) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var view quizView
	err := s.selectQuizzes().Where("qz.id = ?", quizID).Limit(1).Scan(ctx, &view)
	if err != nil {
		return domain.Quiz{}, mapNotFound(err, domain.ErrQuizNotFound)
	}
	return view.toDomain(), nil
}

func (s *Store) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	if filter.SubjectIDs != nil && len(filter.SubjectIDs) == 0 {
		return []domain.Quiz{}, nil
	}
	q := s.selectQuizzes()
	if filter.OwnerID != 0 {
		q = q.Where("qz.owner_id = ?", filter.OwnerID)
	}
	if len(filter.SubjectIDs) > 0 {
		q = q.Where("qz.subject_id IN (?)", bun.In(filter.SubjectIDs))
	}
	if filter.ExcludeTakenBy != 0 {
		q = q.Where("NOT EXISTS (SELECT 1 FROM taken_quizzes AS t WHERE t.quiz_id = qz.id AND t.student_id = ?)", filter.ExcludeTakenBy)
	}
	if filter.WithQuestions {
		q = q.Where("EXISTS (SELECT 1 FROM questions AS qn WHERE qn.quiz_id = qz.id)")
	}
	var views []quizView
	if err := q.OrderExpr("qz.id ASC").Scan(ctx, &views); err != nil {
		return nil, err
	}
	out := make([]domain.Quiz, 0, len(views))
	for _, v := range views {
		out = append(out, v.toDomain())
	}
	return out, nil
}

func (s *Store) selectQuizzes() *bun.SelectQuery {
	return s.db.NewSelect().
		Model((*quizRow)(nil)).
		ColumnExpr("qz.id, qz.owner_id, qz.name, qz.subject_id, qz.created_at").
		ColumnExpr("s.name AS subject_name").
		ColumnExpr("(SELECT COUNT(*) FROM questions AS qn WHERE qn.quiz_id = qz.id) AS question_count").
		ColumnExpr("(SELECT COUNT(*) FROM taken_quizzes AS t WHERE t.quiz_id = qz.id) AS taken_count").
		Join("JOIN subjects AS s ON s.id = qz.subject_id")
}

func (s *Store) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	var rows []questionRow
	if err := s.db.NewSelect().Model(&rows).Where("qn.quiz_id = ?", quizID).OrderExpr("qn.id ASC").Scan(ctx); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Questions, err = s.withAnswers(ctx, rows)
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// withAnswers attaches each question's answers, ordered by text.
func (s *Store) withAnswers(ctx context.Context, rows []questionRow) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var answers []answerRow
	err := s.db.NewSelect().
		Model(&answers).
		Where("a.question_id IN (?)", bun.In(ids)).
		OrderExpr("a.text ASC, a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[int64][]domain.Answer, len(rows))
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a.toDomain())
	}
	for _, row := range rows {
		answers := byQuestion[row.ID]
		if answers == nil {
			answers = []domain.Answer{}
		}
		out = append(out, domain.Question{ID: row.ID, QuizID: row.QuizID, Text: row.Text, Answers: answers})
	}
	return out, nil
}

func (s *Store) CountQuestions(ctx context.Context, quizID int64) (int, error) {
	return s.db.NewSelect().Model((*questionRow)(nil)).Where("qn.quiz_id = ?", quizID).Count(ctx)
}

func (s *Store) CreateQuestion(ctx context.Context, question *domain.Question) error {
	row := questionRow{QuizID: question.QuizID, Text: question.Text}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return err
	}
	question.ID = row.ID
	return nil
}

func (s *Store) UpdateQuestion(ctx context.Context, question domain.Question) error {
	res, err := s.db.NewUpdate().
		Model((*questionRow)(nil)).
		Set("text = ?", question.Text).
		Where("id = ?", question.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrQuestionNotFound)
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID int64) error {
	res, err := s.db.NewDelete().Model((*questionRow)(nil)).Where("id = ?", questionID).Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrQuestionNotFound)
}

func (s *Store) GetQuestion(ctx context.Context, questionID int64) (domain.Question, error) {
	var row questionRow
	if err := s.db.NewSelect().Model(&row).Where("qn.id = ?", questionID).Scan(ctx); err != nil {
		return domain.Question{}, mapNotFound(err, domain.ErrQuestionNotFound)
	}
	questions, err := s.withAnswers(ctx, []questionRow{row})
	if err != nil {
		return domain.Question{}, err
	}
	return questions[0], nil
}

func (s *Store) CreateAnswer(ctx context.Context, answer *domain.Answer) error {
	row := answerRow{QuestionID: answer.QuestionID, Text: answer.Text, IsCorrect: answer.IsCorrect}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return err
	}
	answer.ID = row.ID
	return nil
}

func (s *Store) UpdateAnswer(ctx context.Context, answer domain.Answer) error {
	res, err := s.db.NewUpdate().
		Model((*answerRow)(nil)).
		Set("text = ?", answer.Text).
		Set("is_correct = ?", answer.IsCorrect).
		Where("id = ?", answer.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrAnswerNotFound)
}

func (s *Store) DeleteAnswer(ctx context.Context, answerID int64) error {
	res, err := s.db.NewDelete().Model((*answerRow)(nil)).Where("id = ?", answerID).Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrAnswerNotFound)
}

func (s *Store) GetAnswer(ctx context.Context, answerID int64) (domain.Answer, error) {
	var row answerRow
	if err := s.db.NewSelect().Model(&row).Where("a.id = ?", answerID).Scan(ctx); err != nil {
		return domain.Answer{}, mapNotFound(err, domain.ErrAnswerNotFound)
	}
	return row.toDomain(), nil
}
