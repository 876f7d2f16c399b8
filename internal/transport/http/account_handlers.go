package http

import (
	"net/http"

	"classroom-service/internal/app"
	"classroom-service/internal/auth"
	"classroom-service/internal/domain"
)

type loginResponse struct {
	auth.Token
	User domain.User `json:"user"`
}

func (h *handler) signUpStudent(w http.ResponseWriter, r *http.Request) {
	var in app.StudentSignUpInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.accounts.SignUpStudent(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.startSession(w, r, user, http.StatusCreated)
}

func (h *handler) signUpTeacher(w http.ResponseWriter, r *http.Request) {
	var in app.SignUpInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.accounts.SignUpTeacher(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.startSession(w, r, user, http.StatusCreated)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var in app.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.accounts.Authenticate(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.startSession(w, r, user, http.StatusOK)
}

// startSession signs the user in right away, as sign-up does in the web UI.
func (h *handler) startSession(w http.ResponseWriter, r *http.Request, user domain.User, status int) {
	token, err := h.auth.Issue(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, loginResponse{Token: token, User: user})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	if err := h.auth.Revoke(r.Context(), session.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.authoring.Subjects(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}
