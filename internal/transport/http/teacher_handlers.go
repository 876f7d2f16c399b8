package http

import (
	"net/http"

	"classroom-service/internal/app"
	"classroom-service/internal/domain"
)

func (h *handler) quizResource() resource[domain.Quiz, app.QuizInput] {
	return resource[domain.Quiz, app.QuizInput]{
		idParam: "quizID",
		list: func(r *http.Request) ([]domain.Quiz, error) {
			return h.authoring.ListQuizzes(r.Context(), currentUser(r).ID)
		},
		create: func(r *http.Request, in app.QuizInput) (domain.Quiz, error) {
			return h.authoring.CreateQuiz(r.Context(), currentUser(r).ID, in)
		},
		get: func(r *http.Request, id int64) (domain.Quiz, error) {
			return h.authoring.QuizDetail(r.Context(), currentUser(r).ID, id)
		},
		update: func(r *http.Request, id int64, in app.QuizInput) (domain.Quiz, error) {
			return h.authoring.UpdateQuiz(r.Context(), currentUser(r).ID, id, in)
		},
		remove: func(r *http.Request, id int64) error {
			return h.authoring.DeleteQuiz(r.Context(), currentUser(r).ID, id)
		},
	}
}

func (h *handler) questionResource() resource[domain.Question, app.QuestionInput] {
	return resource[domain.Question, app.QuestionInput]{
		idParam: "questionID",
		list: func(r *http.Request) ([]domain.Question, error) {
			quizID, err := idParam(r, "quizID")
			if err != nil {
				return nil, err
			}
			return h.authoring.ListQuestions(r.Context(), currentUser(r).ID, quizID)
		},
		create: func(r *http.Request, in app.QuestionInput) (domain.Question, error) {
			quizID, err := idParam(r, "quizID")
			if err != nil {
				return domain.Question{}, err
			}
			return h.authoring.AddQuestion(r.Context(), currentUser(r).ID, quizID, in)
		},
		get: func(r *http.Request, id int64) (domain.Question, error) {
			quizID, err := idParam(r, "quizID")
			if err != nil {
				return domain.Question{}, err
			}
			return h.authoring.GetQuestion(r.Context(), currentUser(r).ID, quizID, id)
		},
		update: func(r *http.Request, id int64, in app.QuestionInput) (domain.Question, error) {
			quizID, err := idParam(r, "quizID")
			if err != nil {
				return domain.Question{}, err
			}
			return h.authoring.UpdateQuestion(r.Context(), currentUser(r).ID, quizID, id, in)
		},
		remove: func(r *http.Request, id int64) error {
			quizID, err := idParam(r, "quizID")
			if err != nil {
				return err
			}
			return h.authoring.DeleteQuestion(r.Context(), currentUser(r).ID, quizID, id)
		},
	}
}

type saveAnswersRequest struct {
	Answers []domain.AnswerChange `json:"answers"`
}

// saveAnswers applies one batch of answer changes to a question.
func (h *handler) saveAnswers(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	questionID, err := idParam(r, "questionID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req saveAnswersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	question, err := h.authoring.SaveAnswers(r.Context(), currentUser(r).ID, quizID, questionID, req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *handler) quizResults(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	results, err := h.authoring.Results(r.Context(), currentUser(r).ID, quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
