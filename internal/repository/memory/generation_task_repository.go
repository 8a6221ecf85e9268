package memory

import (
	"sync"
	"time"

	"proposal-intake-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// GenerationTaskRepository keeps task status in memory. Entries expire an
// hour after their last update.
type GenerationTaskRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
	now   func() time.Time
}

func NewGenerationTaskRepository() *GenerationTaskRepository {
	return &GenerationTaskRepository{
		cache: cache.New(1*time.Hour, 10*time.Minute),
		now:   time.Now,
	}
}

func (r *GenerationTaskRepository) Get(conversationId uuid.UUID) (*entity.GenerationTask, bool) {
	if x, found := r.cache.Get(conversationId.String()); found {
		task := *x.(*entity.GenerationTask)
		return &task, true
	}
	return nil, false
}

// Upsert applies mutate to the stored task, creating a pending one first if needed.
func (r *GenerationTaskRepository) Upsert(conversationId uuid.UUID, mutate func(task *entity.GenerationTask)) *entity.GenerationTask {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	task := &entity.GenerationTask{
		ConversationId: conversationId,
		Status:         entity.GenerationPending,
		CreatedAt:      now,
	}
	if x, found := r.cache.Get(conversationId.String()); found {
		existing := *x.(*entity.GenerationTask)
		task = &existing
	}
	mutate(task)
	task.UpdatedAt = now
	r.cache.Set(conversationId.String(), task, cache.DefaultExpiration)

	out := *task
	return &out
}

// MarkPending queues the task for another attempt. The last error stays visible.
func (r *GenerationTaskRepository) MarkPending(conversationId uuid.UUID) *entity.GenerationTask {
	return r.Upsert(conversationId, func(task *entity.GenerationTask) {
		task.Status = entity.GenerationPending
	})
}

func (r *GenerationTaskRepository) MarkRunning(conversationId uuid.UUID, state string) *entity.GenerationTask {
	return r.Upsert(conversationId, func(task *entity.GenerationTask) {
		if task.Status != entity.GenerationRunning {
			task.Attempts++
		}
		task.Status = entity.GenerationRunning
		task.State = state
	})
}

func (r *GenerationTaskRepository) MarkCompleted(conversationId uuid.UUID, state string) *entity.GenerationTask {
	return r.Upsert(conversationId, func(task *entity.GenerationTask) {
		task.Status = entity.GenerationCompleted
		task.State = state
		task.Error = ""
	})
}

func (r *GenerationTaskRepository) MarkFailed(conversationId uuid.UUID, state string, err error) *entity.GenerationTask {
	return r.Upsert(conversationId, func(task *entity.GenerationTask) {
		task.Status = entity.GenerationFailed
		task.State = state
		if err != nil {
			task.Error = err.Error()
		}
	})
}

func (r *GenerationTaskRepository) Delete(conversationId uuid.UUID) {
	r.cache.Delete(conversationId.String())
}
