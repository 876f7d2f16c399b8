package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"classroom-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches a quiz with its questions and answers from the database.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// QuizRepository caches full quizzes in Redis and falls back to a loader on a miss.
// Each quiz is one JSON value: SET classroom:quiz:{quizID} {json} EX ttl
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand

	// bumped by Invalidate; a load that started before the bump is not written back
	genMu sync.Mutex
	gen   map[int64]uint64
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		gen:    make(map[int64]uint64),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		// another caller may have filled the cache meanwhile
		if quiz, ok := r.cached(ctx, quizID); ok {
			return quiz, nil
		}
		before := r.generation(quizID)
		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if r.generation(quizID) != before {
			return quiz, nil
		}
		raw, err := json.Marshal(quiz)
		if err != nil {
			return domain.Quiz{}, err
		}
		if err := r.client.Set(ctx, r.key(quizID), raw, r.ttlWithJitter()).Err(); err != nil {
			log.Printf("quiz cache: set %d: %v", quizID, err)
		}
		// an Invalidate racing the Set may have deleted before we wrote
		if r.generation(quizID) != before {
			if err := r.client.Del(ctx, r.key(quizID)).Err(); err != nil {
				log.Printf("quiz cache: invalidate %d: %v", quizID, err)
			}
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate removes the cached copy; the next read reloads it.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID int64) {
	r.genMu.Lock()
	r.gen[quizID]++
	r.genMu.Unlock()
	if err := r.client.Del(ctx, r.key(quizID)).Err(); err != nil {
		log.Printf("quiz cache: invalidate %d: %v", quizID, err)
	}
	r.sf.Forget(strconv.FormatInt(quizID, 10))
}

func (r *QuizRepository) cached(ctx context.Context, quizID int64) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, r.key(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("quiz cache: get %d: %v", quizID, err)
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		log.Printf("quiz cache: decode %d: %v", quizID, err)
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) generation(quizID int64) uint64 {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	return r.gen[quizID]
}

func (r *QuizRepository) key(quizID int64) string {
	return "classroom:quiz:" + strconv.FormatInt(quizID, 10)
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
