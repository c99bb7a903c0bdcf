package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"lumina/internal/service/content/domain"
)

// fakeCounter 用存储级原语的语义模拟计数器:
// 初始化与自增都在锁内完成，nil 表示计数器缺失。
type fakeCounter struct {
	mu       sync.Mutex
	values   map[string]*int64
	initErr  error
	incrErr  error
	initCall int
	incrCall int
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{values: make(map[string]*int64)}
}

func (c *fakeCounter) InitViews(_ context.Context, contentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initCall++
	if c.initErr != nil {
		return c.initErr
	}
	if c.values[contentID] == nil {
		one := int64(1)
		c.values[contentID] = &one
		return nil
	}
	*c.values[contentID]++
	return nil
}

func (c *fakeCounter) IncrementViews(_ context.Context, contentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.incrCall++
	if c.incrErr != nil {
		return c.incrErr
	}
	if c.values[contentID] == nil {
		return errors.New("increment on missing counter")
	}
	*c.values[contentID]++
	return nil
}

func (c *fakeCounter) value(contentID string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values[contentID] == nil {
		return 0
	}
	return *c.values[contentID]
}

type fakeContentRepo struct {
	items map[string]*domain.ContentItem
}

func (r *fakeContentRepo) FindPublishedBySlug(_ context.Context, slug string) (*domain.ContentItem, error) {
	for _, item := range r.items {
		if item.Published() && item.Slug() == slug {
			return item, nil
		}
	}
	return nil, domain.ErrContentNotFound
}

func newContentService(repo *fakeContentRepo, counter *fakeCounter) *ContentService {
	if repo == nil {
		repo = &fakeContentRepo{items: map[string]*domain.ContentItem{}}
	}
	return NewContentService(repo, counter, noop.NewTracerProvider().Tracer("test"))
}

func publishedItem(id string, views *int64) *domain.ContentItem {
	return &domain.ContentItem{ID: id, Title: "Advanced Go Patterns", Status: domain.StatusPublished, Views: views}
}

func TestGetPublishedBySlug_DraftIsNotFound(t *testing.T) {
	repo := &fakeContentRepo{items: map[string]*domain.ContentItem{
		"course_1": {ID: "course_1", Title: "Advanced Go Patterns", Status: domain.StatusDraft},
	}}
	svc := newContentService(repo, newFakeCounter())

	_, err := svc.GetPublishedBySlug(context.Background(), "advanced-go-patterns")
	require.ErrorIs(t, err, domain.ErrContentNotFound)
}

func TestRecordView_InitializesMissingCounterToOne(t *testing.T) {
	counter := newFakeCounter()
	svc := newContentService(nil, counter)
	session := domain.NewViewSession()

	counted := svc.RecordView(context.Background(), session, publishedItem("course_1", nil))

	assert.True(t, counted)
	assert.Equal(t, int64(1), counter.value("course_1"))
	assert.Equal(t, 1, counter.initCall)
	assert.Equal(t, 0, counter.incrCall, "missing counter must be initialized, not incremented")
}

func TestRecordView_IncrementsExistingCounter(t *testing.T) {
	counter := newFakeCounter()
	five := int64(5)
	counter.values["course_1"] = &five
	svc := newContentService(nil, counter)

	counted := svc.RecordView(context.Background(), domain.NewViewSession(), publishedItem("course_1", &five))

	assert.True(t, counted)
	assert.Equal(t, int64(6), counter.value("course_1"))
	assert.Equal(t, 0, counter.initCall)
}

func TestRecordView_AtMostOncePerSession(t *testing.T) {
	counter := newFakeCounter()
	svc := newContentService(nil, counter)
	session := domain.NewViewSession()
	item := publishedItem("course_1", nil)

	assert.True(t, svc.RecordView(context.Background(), session, item))
	// 同一会话的后续浏览不再计数
	assert.False(t, svc.RecordView(context.Background(), session, item))
	assert.False(t, svc.RecordView(context.Background(), session, item))

	assert.Equal(t, int64(1), counter.value("course_1"))
}

func TestRecordView_FailureIsSwallowedAndNotMarked(t *testing.T) {
	counter := newFakeCounter()
	counter.initErr = errors.New("store is down")
	svc := newContentService(nil, counter)
	session := domain.NewViewSession()
	item := publishedItem("course_1", nil)

	counted := svc.RecordView(context.Background(), session, item)

	assert.False(t, counted)
	assert.False(t, session.Seen("course_1"), "failed write must leave the session unmarked for retry")

	// 存储恢复后，同一会话的下一次浏览补上计数
	counter.initErr = nil
	assert.True(t, svc.RecordView(context.Background(), session, item))
	assert.Equal(t, int64(1), counter.value("course_1"))
}

func TestRecordView_ConcurrentDistinctSessions(t *testing.T) {
	counter := newFakeCounter()
	prior := int64(10)
	counter.values["course_1"] = &prior
	svc := newContentService(nil, counter)

	const sessions = 50
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			item := publishedItem("course_1", &prior)
			session := domain.NewViewSession(fmt.Sprintf("other_%d", n))
			svc.RecordView(context.Background(), session, item)
		}(i)
	}
	wg.Wait()

	// N 个独立会话各计一次，终值为先前值 + N
	assert.Equal(t, int64(10+sessions), counter.value("course_1"))
}
