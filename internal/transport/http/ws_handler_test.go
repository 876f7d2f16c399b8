package http

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"classroom-service/internal/domain"
	"github.com/gorilla/websocket"
)

func TestResultsWebSocketStreamsFinishedAttempts(t *testing.T) {
	api := newTestAPI(t)
	teacher := api.teacher("mrsmith")
	quiz := api.quiz(teacher.AccessToken, "Algebra Basics", "Math", 1)
	student := api.student("alice", "Math")

	u := "ws" + strings.TrimPrefix(api.server.URL, "http") +
		fmt.Sprintf("/teachers/quizzes/%d/results/ws?access_token=%s", quiz.ID, teacher.AccessToken)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	snapshot := readResults(t, conn)
	if snapshot.TotalTaken != 0 || snapshot.Quiz.ID != quiz.ID {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	var current takeView
	takePath := fmt.Sprintf("/students/quizzes/%d/take", quiz.ID)
	api.do(http.MethodGet, takePath, student.AccessToken, nil, &current)
	status, body := api.do(http.MethodPost, takePath, student.AccessToken, submitRequest{AnswerID: current.answer("right")}, nil)
	if status != http.StatusOK {
		t.Fatalf("submit: %d %s", status, body)
	}

	update := readResults(t, conn)
	if update.TotalTaken != 1 || update.AverageScore != 100 {
		t.Fatalf("unexpected update: %+v", update)
	}
	if len(update.TakenQuizzes) != 1 || update.TakenQuizzes[0].StudentUsername != "alice" {
		t.Fatalf("expected alice's attempt, got %+v", update.TakenQuizzes)
	}
}

func TestResultsWebSocketRejectsOtherTeachers(t *testing.T) {
	api := newTestAPI(t)
	owner := api.teacher("mrsmith")
	quiz := api.quiz(owner.AccessToken, "Algebra Basics", "Math", 1)
	other := api.teacher("msjones")

	u := "ws" + strings.TrimPrefix(api.server.URL, "http") +
		fmt.Sprintf("/teachers/quizzes/%d/results/ws?access_token=%s", quiz.ID, other.AccessToken)
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
	if n := api.feed.Subscribers(quiz.ID); n != 0 {
		t.Fatalf("expected a rejected handshake to release its subscription, got %d", n)
	}

	_, resp, err = websocket.DefaultDialer.Dial(strings.Split(u, "?")[0], nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %v %+v", err, resp)
	}
}

func readResults(t *testing.T, conn *websocket.Conn) domain.QuizResults {
	t.Helper()
	var msg struct {
		Type    string             `json:"type"`
		Payload domain.QuizResults `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "results" {
		t.Fatalf("expected results message, got %s", msg.Type)
	}
	return msg.Payload
}
