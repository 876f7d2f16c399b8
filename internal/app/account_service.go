package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"classroom-service/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// SignUpInput is the account part of both sign-up forms.
type SignUpInput struct {
	Username        string `json:"username" validate:"required,min=3,max=150,alphanum"`
	Email           string `json:"email" validate:"omitempty,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// StudentSignUpInput adds the subjects a new student is interested in.
type StudentSignUpInput struct {
	SignUpInput
	Interests []int64 `json:"interests" validate:"required,min=1,dive,gt=0"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type InterestsInput struct {
	SubjectIDs []int64 `json:"subjectIds" validate:"required,min=1,dive,gt=0"`
}

// AccountService signs users up and checks their credentials.
type AccountService struct {
	store Store
	cost  int
	now   func() time.Time
}

func NewAccountService(store Store) *AccountService {
	return &AccountService{store: store, cost: bcrypt.DefaultCost, now: time.Now}
}

// NewAccountServiceWithCost is test-only; low bcrypt costs keep tests fast.
func NewAccountServiceWithCost(store Store, cost int) *AccountService {
	return &AccountService{store: store, cost: cost, now: time.Now}
}

// SignUpStudent creates the user, the student profile and its interests in one
// transaction; if any step fails no user is left behind.
func (s *AccountService) SignUpStudent(ctx context.Context, in StudentSignUpInput) (domain.User, error) {
	user, err := s.newUser(in.SignUpInput, &in)
	if err != nil {
		return domain.User{}, err
	}
	user.IsStudent = true
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.CreateUser(ctx, &user); err != nil {
			return err
		}
		if err := tx.CreateStudent(ctx, user.ID); err != nil {
			return err
		}
		return tx.SetInterests(ctx, user.ID, uniqueIDs(in.Interests))
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *AccountService) SignUpTeacher(ctx context.Context, in SignUpInput) (domain.User, error) {
	user, err := s.newUser(in, &in)
	if err != nil {
		return domain.User{}, err
	}
	user.IsTeacher = true
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Authenticate returns the user matching the credentials.
func (s *AccountService) Authenticate(ctx context.Context, in LoginInput) (domain.User, error) {
	if err := validateInput(in); err != nil {
		return domain.User{}, err
	}
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) User(ctx context.Context, userID int64) (domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *AccountService) Interests(ctx context.Context, studentID int64) ([]domain.Subject, error) {
	return s.store.ListInterests(ctx, studentID)
}

// UpdateInterests replaces the student's subjects of interest.
func (s *AccountService) UpdateInterests(ctx context.Context, studentID int64, in InterestsInput) ([]domain.Subject, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		return tx.SetInterests(ctx, studentID, uniqueIDs(in.SubjectIDs))
	})
	if err != nil {
		return nil, err
	}
	return s.store.ListInterests(ctx, studentID)
}

func (s *AccountService) newUser(in SignUpInput, form any) (domain.User, error) {
	if err := validateInput(form); err != nil {
		return domain.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
