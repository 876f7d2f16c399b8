package http

import (
	"net/http"

	"classroom-service/internal/app"
	"classroom-service/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
)

// Services are the use cases the HTTP layer exposes.
type Services struct {
	Accounts  *app.AccountService
	Quizzes   *app.QuizService
	Authoring *app.AuthoringService
	Feed      *app.ResultsFeed
	Auth      *auth.Service
}

// Options tune the router.
type Options struct {
	// LoginURL is returned to clients that must sign in first.
	LoginURL       string
	AllowedOrigins []string
}

type handler struct {
	accounts  *app.AccountService
	quizzes   *app.QuizService
	authoring *app.AuthoringService
	feed      *app.ResultsFeed
	auth      *auth.Service
	loginURL  string
	upgrader  websocket.Upgrader
}

// NewRouter wires every route of the classroom API.
func NewRouter(svc Services, opts Options) http.Handler {
	h := &handler{
		accounts:  svc.Accounts,
		quizzes:   svc.Quizzes,
		authoring: svc.Authoring,
		feed:      svc.Feed,
		auth:      svc.Auth,
		loginURL:  opts.LoginURL,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if h.loginURL == "" {
		h.loginURL = "/accounts/login"
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))
	r.Use(h.authenticate)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/subjects", h.listSubjects)

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/signup/student", h.signUpStudent)
		r.Post("/signup/teacher", h.signUpTeacher)
		r.Post("/login", h.login)
		r.With(h.requireRole(isAuthenticated)).Post("/logout", h.logout)
	})

	r.Route("/students", func(r chi.Router) {
		r.Use(h.requireRole(isStudent))
		r.Get("/quizzes", h.availableQuizzes)
		r.Get("/taken", h.takenQuizzes)
		r.Get("/interests", h.interests)
		r.Put("/interests", h.updateInterests)
		r.Get("/quizzes/{quizID}/take", h.currentQuestion)
		r.Post("/quizzes/{quizID}/take", h.submitAnswer)
	})

	r.Route("/teachers", func(r chi.Router) {
		r.Use(h.requireRole(isTeacher))
		r.Route("/quizzes", func(r chi.Router) {
			h.quizResource().mount(r, func(r chi.Router) {
				r.Get("/results", h.quizResults)
				r.Get("/results/ws", h.serveResultsWS)
				r.Route("/questions", func(r chi.Router) {
					h.questionResource().mount(r, func(r chi.Router) {
						r.Put("/answers", h.saveAnswers)
					})
				})
			})
		})
	})

	return r
}
