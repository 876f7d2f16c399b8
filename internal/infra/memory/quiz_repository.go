package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"classroom-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches a quiz with its questions and answers from the database.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// QuizRepository caches full quizzes with TTL to avoid repeated DB hits.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[int64]cachedQuiz
	// bumped by Invalidate; a load that started before the bump is not cached
	gen map[int64]uint64
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedQuiz),
		gen:    make(map[int64]uint64),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	if quiz, ok := r.cached(quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		if quiz, ok := r.cached(quizID); ok {
			return quiz, nil
		}
		r.mu.RLock()
		before := r.gen[quizID]
		r.mu.RUnlock()
		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		ttl := r.ttlWithJitter()
		if ttl <= 0 {
			return quiz, nil
		}
		r.mu.Lock()
		if r.gen[quizID] == before {
			r.cache[quizID] = cachedQuiz{quiz: quiz, expiresAt: r.clock().Add(ttl)}
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate drops the cached copy so the next read goes to the loader.
func (r *QuizRepository) Invalidate(_ context.Context, quizID int64) {
	r.mu.Lock()
	delete(r.cache, quizID)
	r.gen[quizID]++
	r.mu.Unlock()
	r.sf.Forget(strconv.FormatInt(quizID, 10))
}

func (r *QuizRepository) cached(quizID int64) (domain.Quiz, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[quizID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// up to 10% jitter spreads expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
