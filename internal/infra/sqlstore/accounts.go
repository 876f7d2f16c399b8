package sqlstore

import (
	"context"

	"classroom-service/internal/domain"
	"github.com/uptrace/bun"
)

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	row := userRow{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		IsStudent:    user.IsStudent,
		IsTeacher:    user.IsTeacher,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return mapUnique(err, domain.ErrUsernameTaken)
	}
	user.ID = row.ID
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where("u.id = ?", userID).Scan(ctx); err != nil {
		return domain.User{}, mapNotFound(err, domain.ErrUserNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where("u.username = ?", username).Scan(ctx); err != nil {
		return domain.User{}, mapNotFound(err, domain.ErrUserNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateStudent(ctx context.Context, userID int64) error {
	row := studentRow{UserID: userID}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return mapUnique(err, domain.ErrConflict)
	}
	return nil
}

func (s *Store) SetInterests(ctx context.Context, studentID int64, subjectIDs []int64) error {
	if len(subjectIDs) > 0 {
		known, err := s.db.NewSelect().
			Model((*subjectRow)(nil)).
			Where("s.id IN (?)", bun.In(subjectIDs)).
			Count(ctx)
		if err != nil {
			return err
		}
		if known != len(subjectIDs) {
			return domain.ErrSubjectNotFound
		}
	}
	if _, err := s.db.NewDelete().
		Model((*studentInterestRow)(nil)).
		Where("student_id = ?", studentID).
		Exec(ctx); err != nil {
		return err
	}
	if len(subjectIDs) == 0 {
		return nil
	}
	rows := make([]studentInterestRow, 0, len(subjectIDs))
	for _, id := range subjectIDs {
		rows = append(rows, studentInterestRow{StudentID: studentID, SubjectID: id})
	}
	_, err := s.db.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (s *Store) ListInterests(ctx context.Context, studentID int64) ([]domain.Subject, error) {
	var rows []subjectRow
	err := s.db.NewSelect().
		Model(&rows).
		Join("JOIN student_interests AS si ON si.subject_id = s.id").
		Where("si.student_id = ?", studentID).
		OrderExpr("s.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Subject, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Subject{ID: row.ID, Name: row.Name})
	}
	return out, nil
}
