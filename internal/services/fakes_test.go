package services

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/linkbridge/linkbridge/internal/models"
	"github.com/linkbridge/linkbridge/internal/repository"
)

// memLinkRepo enforces token uniqueness the way the database does: atomically
// at insert time.
type memLinkRepo struct {
	mu      sync.Mutex
	byToken map[string]*models.Link
	nextID  uint
	finds   int
}

func newMemLinkRepo() *memLinkRepo {
	return &memLinkRepo{byToken: map[string]*models.Link{}}
}

func (r *memLinkRepo) Insert(_ context.Context, link *models.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byToken[link.Token]; ok {
		return repository.ErrDuplicateToken
	}
	r.nextID++
	link.ID = r.nextID
	cp := *link
	r.byToken[link.Token] = &cp
	return nil
}

func (r *memLinkRepo) FindByToken(_ context.Context, token string) (*models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	l, ok := r.byToken[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memLinkRepo) IncrementVisits(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byToken {
		if l.ID == id {
			l.Visits++
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memLinkRepo) List(_ context.Context, limit, offset int) ([]models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Link, 0, len(r.byToken))
	for _, l := range r.byToken {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memLinkRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byToken)), nil
}

func (r *memLinkRepo) findCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finds
}

// mockLinkRepo is used where a test needs the store to fail.
type mockLinkRepo struct {
	mock.Mock
}

func (m *mockLinkRepo) Insert(ctx context.Context, link *models.Link) error {
	return m.Called(ctx, link).Error(0)
}

func (m *mockLinkRepo) FindByToken(ctx context.Context, token string) (*models.Link, error) {
	args := m.Called(ctx, token)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (m *mockLinkRepo) IncrementVisits(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockLinkRepo) List(ctx context.Context, limit, offset int) ([]models.Link, error) {
	args := m.Called(ctx, limit, offset)
	links, _ := args.Get(0).([]models.Link)
	return links, args.Error(1)
}

func (m *mockLinkRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type recorder struct {
	mu     sync.Mutex
	events []models.VisitEvent
	accept bool
}

func (r *recorder) Record(ev models.VisitEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.accept
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// sequence returns the given tokens in order, then repeats the last one.
func sequence(tokens ...string) TokenGenerator {
	var mu sync.Mutex
	i := 0
	return func(int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		t := tokens[i]
		if i < len(tokens)-1 {
			i++
		}
		return t, nil
	}
}
