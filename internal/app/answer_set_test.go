package app_test

import (
	"errors"
	"testing"

	"classroom-service/internal/app"
	"classroom-service/internal/domain"
)

func TestValidateAnswerSet(t *testing.T) {
	four := func(correct ...bool) []domain.AnswerChange {
		out := make([]domain.AnswerChange, 0, len(correct))
		for i, c := range correct {
			out = append(out, domain.AnswerChange{Text: string(rune('A' + i)), IsCorrect: c})
		}
		return out
	}
	cases := []struct {
		name     string
		existing []domain.Answer
		changes  []domain.AnswerChange
		wantCode string
		wantMsg  string
	}{
		{
			name:     "none correct",
			changes:  four(false, false, false, false),
			wantCode: domain.CodeNoCorrectAnswer,
			wantMsg:  "Mark at least one answer as correct.",
		},
		{
			name:     "all correct",
			changes:  four(true, true, true, true),
			wantCode: domain.CodeAllCorrectAnswers,
			wantMsg:  "Not all answers can be marked as correct.",
		},
		{
			name:    "one correct",
			changes: four(true, false, false, false),
		},
		{
			name:    "two of four correct",
			changes: four(true, false, true, false),
		},
		{
			name:     "too few",
			changes:  four(true),
			wantCode: domain.CodeTooFewAnswers,
		},
		{
			name:     "too many",
			changes:  append(four(true, false, false, false, false, false), four(false, false, false, false, false)...),
			wantCode: domain.CodeTooManyAnswers,
		},
		{
			name: "deleting the only correct answer",
			existing: []domain.Answer{
				{ID: 1, Text: "4", IsCorrect: true},
				{ID: 2, Text: "3"},
				{ID: 3, Text: "5"},
			},
			changes:  []domain.AnswerChange{{ID: 1, Delete: true}},
			wantCode: domain.CodeNoCorrectAnswer,
		},
		{
			name: "marking the last wrong answer correct",
			existing: []domain.Answer{
				{ID: 1, Text: "4", IsCorrect: true},
				{ID: 2, Text: "four", IsCorrect: true},
				{ID: 3, Text: "3"},
			},
			changes:  []domain.AnswerChange{{ID: 3, Text: "IV", IsCorrect: true}},
			wantCode: domain.CodeAllCorrectAnswers,
		},
		{
			name:     "answer of another question",
			existing: []domain.Answer{{ID: 1, Text: "4", IsCorrect: true}, {ID: 2, Text: "3"}},
			changes:  []domain.AnswerChange{{ID: 9, Text: "x"}},
			wantCode: domain.CodeInvalid,
		},
		{
			name:     "blank text",
			changes:  []domain.AnswerChange{{Text: "  ", IsCorrect: true}, {Text: "B"}, {Text: "C"}},
			wantCode: domain.CodeInvalid,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := app.ValidateAnswerSet(tc.existing, tc.changes)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected accepted batch, got %v", err)
				}
				if len(plan.Survivors) != len(tc.existing)+len(plan.Create) {
					t.Fatalf("unexpected survivors: %+v", plan.Survivors)
				}
				return
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Code != tc.wantCode {
				t.Fatalf("expected code %s, got %s (%s)", tc.wantCode, verr.Code, verr.Message)
			}
			if tc.wantMsg != "" && verr.Message != tc.wantMsg {
				t.Fatalf("expected message %q, got %q", tc.wantMsg, verr.Message)
			}
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("validation errors must match ErrInvalidInput")
			}
		})
	}
}

func TestValidateAnswerSetPlan(t *testing.T) {
	existing := []domain.Answer{
		{ID: 1, Text: "4", IsCorrect: true},
		{ID: 2, Text: "3"},
		{ID: 3, Text: "5"},
	}
	plan, err := app.ValidateAnswerSet(existing, []domain.AnswerChange{
		{ID: 2, Delete: true},
		{ID: 3, Text: "five"},
		{Text: "22"},
		{Text: "dropped", Delete: true},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(plan.Delete) != 1 || plan.Delete[0] != 2 {
		t.Fatalf("unexpected deletes: %v", plan.Delete)
	}
	if len(plan.Update) != 1 || plan.Update[0].Text != "five" {
		t.Fatalf("unexpected updates: %+v", plan.Update)
	}
	if len(plan.Create) != 1 || plan.Create[0].Text != "22" {
		t.Fatalf("unexpected creates: %+v", plan.Create)
	}
	if len(plan.Survivors) != 3 {
		t.Fatalf("expected 3 survivors, got %+v", plan.Survivors)
	}
}
