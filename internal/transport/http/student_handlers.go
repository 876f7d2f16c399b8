package http

import (
	"errors"
	"net/http"

	"classroom-service/internal/app"
	"classroom-service/internal/domain"
)

// Students see questions without the correctness flags.

type answerView struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type questionView struct {
	ID      int64        `json:"id"`
	Text    string       `json:"text"`
	Answers []answerView `json:"answers"`
}

type progressView struct {
	QuizID      int64        `json:"quizId"`
	QuizName    string       `json:"quizName"`
	SubjectName string       `json:"subjectName"`
	Question    questionView `json:"question"`
	Answered    int          `json:"answered"`
	Total       int          `json:"total"`
	Remaining   int          `json:"remaining"`
}

type submitRequest struct {
	AnswerID int64 `json:"answerId"`
}

type submitResponse struct {
	State     domain.SessionState `json:"state"`
	Next      *progressView       `json:"next,omitempty"`
	TakenQuiz *domain.TakenQuiz   `json:"takenQuiz,omitempty"`
}

func newProgressView(p domain.QuizProgress) progressView {
	answers := make([]answerView, 0, len(p.Question.Answers))
	for _, a := range p.Question.Answers {
		answers = append(answers, answerView{ID: a.ID, Text: a.Text})
	}
	return progressView{
		QuizID:      p.Quiz.ID,
		QuizName:    p.Quiz.Name,
		SubjectName: p.Quiz.SubjectName,
		Question:    questionView{ID: p.Question.ID, Text: p.Question.Text, Answers: answers},
		Answered:    p.Answered,
		Total:       p.Total,
		Remaining:   p.Remaining,
	}
}

func (h *handler) availableQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizzes.AvailableQuizzes(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *handler) takenQuizzes(w http.ResponseWriter, r *http.Request) {
	taken, err := h.quizzes.TakenQuizzes(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taken)
}

func (h *handler) interests(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.accounts.Interests(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (h *handler) updateInterests(w http.ResponseWriter, r *http.Request) {
	var in app.InterestsInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	subjects, err := h.accounts.UpdateInterests(r.Context(), currentUser(r).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (h *handler) currentQuestion(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	progress, err := h.quizzes.CurrentQuestion(r.Context(), currentUser(r).ID, quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProgressView(progress))
}

// submitAnswer records one choice. A rejected choice is answered with the question
// still to be answered so the client can show it again.
func (h *handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	studentID := currentUser(r).ID
	result, err := h.quizzes.SubmitAnswer(r.Context(), studentID, quizID, req.AnswerID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			h.rejectChoice(w, r, studentID, quizID, err)
			return
		}
		writeError(w, r, err)
		return
	}
	resp := submitResponse{State: result.State, TakenQuiz: result.TakenQuiz}
	if result.Next != nil {
		next := newProgressView(*result.Next)
		resp.Next = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) rejectChoice(w http.ResponseWriter, r *http.Request, studentID, quizID int64, cause error) {
	status, body := errorResponse(cause)
	if progress, err := h.quizzes.CurrentQuestion(r.Context(), studentID, quizID); err == nil {
		body.Current = newProgressView(progress)
	}
	writeJSON(w, status, body)
}
