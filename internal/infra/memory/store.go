package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"classroom-service/internal/app"
	"classroom-service/internal/domain"
)

// Store is an in-memory implementation of app.Store for tests and demos. It enforces
// the same uniqueness rules and cascades as the SQL schema. Transactions run one at a
// time and are rolled back by restoring a snapshot.
type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

type studentQuestion struct{ studentID, questionID int64 }
type studentQuiz struct{ studentID, quizID int64 }

type state struct {
	nextID int64

	subjects  map[int64]domain.Subject
	quizzes   map[int64]domain.Quiz
	questions map[int64]domain.Question
	answers   map[int64]domain.Answer

	users     map[int64]domain.User
	students  map[int64]struct{}
	interests map[int64]map[int64]struct{}

	studentAnswers map[int64]domain.StudentAnswer
	answeredBy     map[studentQuestion]int64
	takenQuizzes   map[int64]domain.TakenQuiz
	takenBy        map[studentQuiz]int64
}

var _ app.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, st: newState()}
}

func newState() *state {
	return &state{
		subjects:       make(map[int64]domain.Subject),
		quizzes:        make(map[int64]domain.Quiz),
		questions:      make(map[int64]domain.Question),
		answers:        make(map[int64]domain.Answer),
		users:          make(map[int64]domain.User),
		students:       make(map[int64]struct{}),
		interests:      make(map[int64]map[int64]struct{}),
		studentAnswers: make(map[int64]domain.StudentAnswer),
		answeredBy:     make(map[studentQuestion]int64),
		takenQuizzes:   make(map[int64]domain.TakenQuiz),
		takenBy:        make(map[studentQuiz]int64),
	}
}

func (st *state) clone() *state {
	c := newState()
	c.nextID = st.nextID
	copyMap(c.subjects, st.subjects)
	copyMap(c.quizzes, st.quizzes)
	copyMap(c.questions, st.questions)
	copyMap(c.answers, st.answers)
	copyMap(c.users, st.users)
	copyMap(c.students, st.students)
	for id, subjects := range st.interests {
		set := make(map[int64]struct{}, len(subjects))
		copyMap(set, subjects)
		c.interests[id] = set
	}
	copyMap(c.studentAnswers, st.studentAnswers)
	copyMap(c.answeredBy, st.answeredBy)
	copyMap(c.takenQuizzes, st.takenQuizzes)
	copyMap(c.takenBy, st.takenBy)
	return c
}

func copyMap[K comparable, V any](dst, src map[K]V) {
	for k, v := range src {
		dst[k] = v
	}
}

func (st *state) id() int64 {
	st.nextID++
	return st.nextID
}

// lock is a no-op inside a transaction, which already holds the mutex.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true}
	if err := fn(ctx, tx); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

func (s *Store) CreateSubject(_ context.Context, subject *domain.Subject) error {
	defer s.lock()()
	for _, existing := range s.st.subjects {
		if strings.EqualFold(existing.Name, subject.Name) {
			return domain.ErrConflict
		}
	}
	subject.ID = s.st.id()
	s.st.subjects[subject.ID] = *subject
	return nil
}

func (s *Store) GetSubject(_ context.Context, subjectID int64) (domain.Subject, error) {
	defer s.lock()()
	subject, ok := s.st.subjects[subjectID]
	if !ok {
		return domain.Subject{}, domain.ErrSubjectNotFound
	}
	return subject, nil
}

func (s *Store) ListSubjects(_ context.Context) ([]domain.Subject, error) {
	defer s.lock()()
	out := make([]domain.Subject, 0, len(s.st.subjects))
	for _, subject := range s.st.subjects {
		out = append(out, subject)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateQuiz(_ context.Context, quiz *domain.Quiz) error {
	defer s.lock()()
	if _, ok := s.st.subjects[quiz.SubjectID]; !ok {
		return domain.ErrSubjectNotFound
	}
	quiz.ID = s.st.id()
	s.st.quizzes[quiz.ID] = headerOf(*quiz)
	return nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	defer s.lock()()
	current, ok := s.st.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	if _, ok := s.st.subjects[quiz.SubjectID]; !ok {
		return domain.ErrSubjectNotFound
	}
	current.Name = quiz.Name
	current.SubjectID = quiz.SubjectID
	s.st.quizzes[quiz.ID] = current
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, quizID int64) error {
	defer s.lock()()
	if _, ok := s.st.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	for id, q := range s.st.questions {
		if q.QuizID == quizID {
			s.deleteQuestionLocked(id)
		}
	}
	for id, t := range s.st.takenQuizzes {
		if t.QuizID == quizID {
			delete(s.st.takenQuizzes, id)
			delete(s.st.takenBy, studentQuiz{t.StudentID, t.QuizID})
		}
	}
	delete(s.st.quizzes, quizID)
	return nil
}

func (s *Store) GetQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	defer s.lock()()
	return s.quizLocked(quizID)
}

func (s *Store) quizLocked(quizID int64) (domain.Quiz, error) {
	quiz, ok := s.st.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz.SubjectName = s.st.subjects[quiz.SubjectID].Name
	return quiz, nil
}

func (s *Store) ListQuizzes(_ context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	defer s.lock()()
	var subjects map[int64]bool
	if filter.SubjectIDs != nil {
		subjects = make(map[int64]bool, len(filter.SubjectIDs))
		for _, id := range filter.SubjectIDs {
			subjects[id] = true
		}
	}
	out := []domain.Quiz{}
	for id := range s.st.quizzes {
		quiz, _ := s.quizLocked(id)
		if filter.OwnerID != 0 && quiz.OwnerID != filter.OwnerID {
			continue
		}
		if subjects != nil && !subjects[quiz.SubjectID] {
			continue
		}
		if filter.ExcludeTakenBy != 0 {
			if _, taken := s.st.takenBy[studentQuiz{filter.ExcludeTakenBy, id}]; taken {
				continue
			}
		}
		quiz.QuestionCount = len(s.questionsOfLocked(id))
		if filter.WithQuestions && quiz.QuestionCount == 0 {
			continue
		}
		for _, t := range s.st.takenQuizzes {
			if t.QuizID == id {
				quiz.TakenCount++
			}
		}
		out = append(out, quiz)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) LoadQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	defer s.lock()()
	quiz, err := s.quizLocked(quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.Questions = s.questionsOfLocked(quizID)
	quiz.QuestionCount = len(quiz.Questions)
	return quiz, nil
}

func (s *Store) CountQuestions(_ context.Context, quizID int64) (int, error) {
	defer s.lock()()
	return len(s.questionsOfLocked(quizID)), nil
}

// questionsOfLocked returns the quiz's questions by id, each with answers by text.
func (s *Store) questionsOfLocked(quizID int64) []domain.Question {
	out := []domain.Question{}
	for _, q := range s.st.questions {
		if q.QuizID == quizID {
			q.Answers = s.answersOfLocked(q.ID)
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) answersOfLocked(questionID int64) []domain.Answer {
	out := []domain.Answer{}
	for _, a := range s.st.answers {
		if a.QuestionID == questionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Text != out[j].Text {
			return out[i].Text < out[j].Text
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) CreateQuestion(_ context.Context, question *domain.Question) error {
	defer s.lock()()
	if _, ok := s.st.quizzes[question.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	question.ID = s.st.id()
	stored := *question
	stored.Answers = nil
	s.st.questions[question.ID] = stored
	return nil
}

func (s *Store) UpdateQuestion(_ context.Context, question domain.Question) error {
	defer s.lock()()
	current, ok := s.st.questions[question.ID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	current.Text = question.Text
	s.st.questions[question.ID] = current
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, questionID int64) error {
	defer s.lock()()
	if _, ok := s.st.questions[questionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.deleteQuestionLocked(questionID)
	return nil
}

func (s *Store) deleteQuestionLocked(questionID int64) {
	for id, a := range s.st.answers {
		if a.QuestionID == questionID {
			s.deleteAnswerLocked(id)
		}
	}
	delete(s.st.questions, questionID)
}

func (s *Store) GetQuestion(_ context.Context, questionID int64) (domain.Question, error) {
	defer s.lock()()
	q, ok := s.st.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	q.Answers = s.answersOfLocked(questionID)
	return q, nil
}

func (s *Store) CreateAnswer(_ context.Context, answer *domain.Answer) error {
	defer s.lock()()
	if _, ok := s.st.questions[answer.QuestionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	answer.ID = s.st.id()
	s.st.answers[answer.ID] = *answer
	return nil
}

func (s *Store) UpdateAnswer(_ context.Context, answer domain.Answer) error {
	defer s.lock()()
	current, ok := s.st.answers[answer.ID]
	if !ok {
		return domain.ErrAnswerNotFound
	}
	current.Text = answer.Text
	current.IsCorrect = answer.IsCorrect
	s.st.answers[answer.ID] = current
	return nil
}

func (s *Store) DeleteAnswer(_ context.Context, answerID int64) error {
	defer s.lock()()
	if _, ok := s.st.answers[answerID]; !ok {
		return domain.ErrAnswerNotFound
	}
	s.deleteAnswerLocked(answerID)
	return nil
}

func (s *Store) deleteAnswerLocked(answerID int64) {
	for id, sa := range s.st.studentAnswers {
		if sa.AnswerID == answerID {
			delete(s.st.studentAnswers, id)
			delete(s.st.answeredBy, studentQuestion{sa.StudentID, sa.QuestionID})
		}
	}
	delete(s.st.answers, answerID)
}

func (s *Store) GetAnswer(_ context.Context, answerID int64) (domain.Answer, error) {
	defer s.lock()()
	a, ok := s.st.answers[answerID]
	if !ok {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	return a, nil
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	defer s.lock()()
	for _, existing := range s.st.users {
		if existing.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	user.ID = s.st.id()
	s.st.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (domain.User, error) {
	defer s.lock()()
	user, ok := s.st.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	defer s.lock()()
	for _, user := range s.st.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) CreateStudent(_ context.Context, userID int64) error {
	defer s.lock()()
	if _, ok := s.st.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	if _, ok := s.st.students[userID]; ok {
		return domain.ErrConflict
	}
	s.st.students[userID] = struct{}{}
	return nil
}

func (s *Store) SetInterests(_ context.Context, studentID int64, subjectIDs []int64) error {
	defer s.lock()()
	if _, ok := s.st.students[studentID]; !ok {
		return domain.ErrUserNotFound
	}
	set := make(map[int64]struct{}, len(subjectIDs))
	for _, id := range subjectIDs {
		if _, ok := s.st.subjects[id]; !ok {
			return domain.ErrSubjectNotFound
		}
		set[id] = struct{}{}
	}
	s.st.interests[studentID] = set
	return nil
}

func (s *Store) ListInterests(_ context.Context, studentID int64) ([]domain.Subject, error) {
	defer s.lock()()
	out := []domain.Subject{}
	for id := range s.st.interests[studentID] {
		out = append(out, s.st.subjects[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UnansweredQuestions(_ context.Context, studentID, quizID int64) ([]domain.Question, error) {
	defer s.lock()()
	out := []domain.Question{}
	for _, q := range s.questionsOfLocked(quizID) {
		if _, answered := s.st.answeredBy[studentQuestion{studentID, q.ID}]; !answered {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Store) CountCorrectAnswers(_ context.Context, studentID, quizID int64) (int, error) {
	defer s.lock()()
	n := 0
	for _, sa := range s.st.studentAnswers {
		if sa.StudentID != studentID {
			continue
		}
		answer := s.st.answers[sa.AnswerID]
		if answer.IsCorrect && s.st.questions[answer.QuestionID].QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateStudentAnswer(_ context.Context, answer *domain.StudentAnswer) error {
	defer s.lock()()
	if _, ok := s.st.answers[answer.AnswerID]; !ok {
		return domain.ErrAnswerNotFound
	}
	key := studentQuestion{answer.StudentID, answer.QuestionID}
	if _, ok := s.st.answeredBy[key]; ok {
		return domain.ErrAlreadyAnswered
	}
	answer.ID = s.st.id()
	s.st.studentAnswers[answer.ID] = *answer
	s.st.answeredBy[key] = answer.ID
	return nil
}

func (s *Store) CreateTakenQuiz(_ context.Context, taken *domain.TakenQuiz) error {
	defer s.lock()()
	if _, ok := s.st.quizzes[taken.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	key := studentQuiz{taken.StudentID, taken.QuizID}
	if _, ok := s.st.takenBy[key]; ok {
		return domain.ErrQuizAlreadyTaken
	}
	taken.ID = s.st.id()
	stored := *taken
	stored.QuizName, stored.SubjectName, stored.StudentUsername = "", "", ""
	s.st.takenQuizzes[taken.ID] = stored
	s.st.takenBy[key] = taken.ID
	return nil
}

func (s *Store) GetTakenQuiz(_ context.Context, studentID, quizID int64) (domain.TakenQuiz, error) {
	defer s.lock()()
	id, ok := s.st.takenBy[studentQuiz{studentID, quizID}]
	if !ok {
		return domain.TakenQuiz{}, domain.ErrNotFound
	}
	return s.decorateLocked(s.st.takenQuizzes[id]), nil
}

func (s *Store) ListTakenQuizzes(_ context.Context, filter domain.TakenQuizFilter) ([]domain.TakenQuiz, error) {
	defer s.lock()()
	out := []domain.TakenQuiz{}
	for _, t := range s.st.takenQuizzes {
		if filter.StudentID != 0 && t.StudentID != filter.StudentID {
			continue
		}
		if filter.QuizID != 0 && t.QuizID != filter.QuizID {
			continue
		}
		out = append(out, s.decorateLocked(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) decorateLocked(t domain.TakenQuiz) domain.TakenQuiz {
	quiz := s.st.quizzes[t.QuizID]
	t.QuizName = quiz.Name
	t.SubjectName = s.st.subjects[quiz.SubjectID].Name
	t.StudentUsername = s.st.users[t.StudentID].Username
	return t
}

// LockStudent is implied: transactions already run one at a time.
func (s *Store) LockStudent(_ context.Context, studentID int64) error {
	defer s.lock()()
	if _, ok := s.st.students[studentID]; !ok {
		return domain.ErrUserNotFound
	}
	return nil
}

func headerOf(quiz domain.Quiz) domain.Quiz {
	quiz.Questions = nil
	quiz.SubjectName = ""
	quiz.QuestionCount = 0
	quiz.TakenCount = 0
	return quiz
}
