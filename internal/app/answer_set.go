package app

import (
	"fmt"
	"strings"

	"classroom-service/internal/domain"
)

const (
	minAnswers    = 2
	maxAnswers    = 10
	maxTextLength = 255
)

// AnswerSetPlan is an accepted answer batch, split into the writes it needs.
type AnswerSetPlan struct {
	Create    []domain.Answer
	Update    []domain.Answer
	Delete    []int64
	Survivors []domain.Answer
}

// ValidateAnswerSet merges changes into the existing answers of a question and checks the
// surviving set: 2 to 10 answers, at least one correct and not all correct. More than one
// correct answer is allowed; a student still picks a single answer, which is scored as
// right or wrong. Existing answers the batch does not mention survive unchanged. A
// rejected batch yields a *domain.ValidationError and no plan.
func ValidateAnswerSet(existing []domain.Answer, changes []domain.AnswerChange) (AnswerSetPlan, error) {
	byID := make(map[int64]domain.Answer, len(existing))
	for _, a := range existing {
		byID[a.ID] = a
	}

	var plan AnswerSetPlan
	touched := make(map[int64]bool, len(changes))
	fields := map[string]string{}
	for i, ch := range changes {
		key := fmt.Sprintf("answers[%d]", i)
		if ch.ID != 0 {
			if _, ok := byID[ch.ID]; !ok {
				fields[key+".id"] = "Answer does not belong to this question."
				continue
			}
			if touched[ch.ID] {
				fields[key+".id"] = "Answer appears more than once."
				continue
			}
			touched[ch.ID] = true
		}
		if ch.Delete {
			// A new answer marked for deletion is simply dropped.
			if ch.ID != 0 {
				plan.Delete = append(plan.Delete, ch.ID)
			}
			continue
		}
		text := strings.TrimSpace(ch.Text)
		switch {
		case text == "":
			fields[key+".text"] = "This field is required."
			continue
		case len(text) > maxTextLength:
			fields[key+".text"] = fmt.Sprintf("Must be at most %d long.", maxTextLength)
			continue
		}
		if ch.ID == 0 {
			plan.Create = append(plan.Create, domain.Answer{Text: text, IsCorrect: ch.IsCorrect})
			continue
		}
		updated := byID[ch.ID]
		updated.Text = text
		updated.IsCorrect = ch.IsCorrect
		plan.Update = append(plan.Update, updated)
	}
	if len(fields) > 0 {
		return AnswerSetPlan{}, &domain.ValidationError{Code: domain.CodeInvalid, Message: "invalid answers", Fields: fields}
	}

	for _, a := range existing {
		if !touched[a.ID] {
			plan.Survivors = append(plan.Survivors, a)
		}
	}
	plan.Survivors = append(plan.Survivors, plan.Update...)
	plan.Survivors = append(plan.Survivors, plan.Create...)

	if n := len(plan.Survivors); n < minAnswers {
		return AnswerSetPlan{}, domain.NewValidationError(domain.CodeTooFewAnswers,
			fmt.Sprintf("Please submit at least %d answers.", minAnswers))
	} else if n > maxAnswers {
		return AnswerSetPlan{}, domain.NewValidationError(domain.CodeTooManyAnswers,
			fmt.Sprintf("Please submit at most %d answers.", maxAnswers))
	}

	hasCorrect := false
	allCorrect := true
	for _, a := range plan.Survivors {
		if a.IsCorrect {
			hasCorrect = true
		} else {
			allCorrect = false
		}
	}
	if !hasCorrect {
		return AnswerSetPlan{}, domain.NewValidationError(domain.CodeNoCorrectAnswer, "Mark at least one answer as correct.")
	}
	if allCorrect {
		return AnswerSetPlan{}, domain.NewValidationError(domain.CodeAllCorrectAnswers, "Not all answers can be marked as correct.")
	}
	return plan, nil
}
