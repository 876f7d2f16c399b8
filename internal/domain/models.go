package domain

import "time"

// Role is the capability a user signed up with.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Subject groups quizzes and is what students declare interest in.
type Subject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Answer is one candidate choice of a question.
type Answer struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"questionId"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
}

// Question models an MCQ question; a usable one has exactly one correct answer.
type Question struct {
	ID      int64    `json:"id"`
	QuizID  int64    `json:"quizId"`
	Text    string   `json:"text"`
	Answers []Answer `json:"answers"`
}

// Quiz is a named set of questions under one subject, owned by the teacher who wrote it.
// QuestionCount and TakenCount are filled by listings only.
type Quiz struct {
	ID            int64      `json:"id"`
	OwnerID       int64      `json:"ownerId"`
	Name          string     `json:"name"`
	SubjectID     int64      `json:"subjectId"`
	SubjectName   string     `json:"subjectName,omitempty"`
	Questions     []Question `json:"questions,omitempty"`
	QuestionCount int        `json:"questionCount"`
	TakenCount    int        `json:"takenCount"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// User is an account; exactly one of IsStudent / IsTeacher is set.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsStudent    bool      `json:"isStudent"`
	IsTeacher    bool      `json:"isTeacher"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Role reports the role flag set on the user.
func (u User) Role() Role {
	if u.IsTeacher {
		return RoleTeacher
	}
	return RoleStudent
}

// StudentAnswer is one recorded choice; the student profile shares the user id.
type StudentAnswer struct {
	ID         int64     `json:"id"`
	StudentID  int64     `json:"studentId"`
	QuestionID int64     `json:"questionId"`
	AnswerID   int64     `json:"answerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TakenQuiz is the immutable record of one completed attempt.
type TakenQuiz struct {
	ID              int64     `json:"id"`
	StudentID       int64     `json:"studentId"`
	QuizID          int64     `json:"quizId"`
	Score           float64   `json:"score"`
	Date            time.Time `json:"date"`
	QuizName        string    `json:"quizName,omitempty"`
	SubjectName     string    `json:"subjectName,omitempty"`
	StudentUsername string    `json:"studentUsername,omitempty"`
}

// QuizResults is the teacher's view of a quiz's completed attempts.
type QuizResults struct {
	Quiz         Quiz        `json:"quiz"`
	TakenQuizzes []TakenQuiz `json:"takenQuizzes"`
	TotalTaken   int         `json:"totalTaken"`
	AverageScore float64     `json:"averageScore"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// QuizFilter narrows quiz listings. A non-nil empty SubjectIDs matches nothing.
type QuizFilter struct {
	OwnerID        int64
	SubjectIDs     []int64
	ExcludeTakenBy int64
	WithQuestions  bool
}

// TakenQuizFilter narrows taken-quiz listings; zero fields are ignored.
type TakenQuizFilter struct {
	StudentID int64
	QuizID    int64
}

// AnswerChange is one entry of an answer-set batch. ID zero adds a new answer.
type AnswerChange struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
	Delete    bool   `json:"delete"`
}

// SessionState is where a student stands in a quiz.
type SessionState string

const (
	StateInProgress SessionState = "in_progress"
	StateComplete   SessionState = "complete"
)

// QuizProgress is the question currently presented to a student.
type QuizProgress struct {
	Quiz      Quiz     `json:"quiz"`
	Question  Question `json:"question"`
	Answered  int      `json:"answered"`
	Total     int      `json:"total"`
	Remaining int      `json:"remaining"`
}

// SubmitResult is the outcome of one accepted answer.
type SubmitResult struct {
	State     SessionState  `json:"state"`
	Next      *QuizProgress `json:"next,omitempty"`
	TakenQuiz *TakenQuiz    `json:"takenQuiz,omitempty"`
}
