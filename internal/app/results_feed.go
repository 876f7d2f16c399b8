package app

import (
	"sync"

	"classroom-service/internal/domain"
)

// ResultsFeed fans quiz results out to subscribers (teachers watching a quiz).
type ResultsFeed struct {
	mu          sync.Mutex
	subscribers map[int64]map[chan domain.QuizResults]struct{}
}

func NewResultsFeed() *ResultsFeed {
	return &ResultsFeed{subscribers: make(map[int64]map[chan domain.QuizResults]struct{})}
}

// Subscribe returns a channel that receives results updates for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *ResultsFeed) Subscribe(quizID int64) (<-chan domain.QuizResults, func()) {
	ch := make(chan domain.QuizResults, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.QuizResults]struct{})
		f.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[quizID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, quizID)
		}
	}
	return ch, cancel
}

// Publish delivers results to every subscriber of the quiz without blocking.
func (f *ResultsFeed) Publish(results domain.QuizResults) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[results.Quiz.ID] {
		select {
		case ch <- results:
		default:
			// Slow reader: drop its oldest pending update so the newest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- results
		}
	}
}

// Subscribers reports how many subscribers watch a quiz.
func (f *ResultsFeed) Subscribers(quizID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[quizID])
}
