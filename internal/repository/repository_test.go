package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linkbridge/linkbridge/internal/config"
	"github.com/linkbridge/linkbridge/internal/models"
	"github.com/linkbridge/linkbridge/internal/store"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := store.Open(config.DatabaseConfig{Driver: "sqlite", Name: store.MemoryName}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })
	return db
}

func newLink(token string) *models.Link {
	return &models.Link{Token: token, OriginalURL: "https://example.com/" + token, ExternalShortURL: "https://x.co/" + token}
}

func TestLinkRepository_InsertAndFind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewLinkRepository(openTestDB(t))

	link := newLink("Ab3dEf9h")
	require.NoError(t, repo.Insert(ctx, link))
	require.NotZero(t, link.ID)

	got, err := repo.FindByToken(ctx, "Ab3dEf9h")
	require.NoError(t, err)
	require.Equal(t, link.ID, got.ID)
	require.Equal(t, "https://x.co/Ab3dEf9h", got.ExternalShortURL)
	require.Zero(t, got.Visits)

	_, err = repo.FindByToken(ctx, "ab3def9h")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLinkRepository_DuplicateToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewLinkRepository(openTestDB(t))

	require.NoError(t, repo.Insert(ctx, newLink("dupToken")))
	err := repo.Insert(ctx, newLink("dupToken"))
	require.ErrorIs(t, err, ErrDuplicateToken)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestLinkRepository_IncrementVisits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewLinkRepository(openTestDB(t))

	link := newLink("visits01")
	require.NoError(t, repo.Insert(ctx, link))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementVisits(ctx, link.ID))
		}()
	}
	wg.Wait()

	got, err := repo.FindByToken(ctx, "visits01")
	require.NoError(t, err)
	require.EqualValues(t, 20, got.Visits)

	require.ErrorIs(t, repo.IncrementVisits(ctx, link.ID+100), ErrNotFound)
}

func TestLinkRepository_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewLinkRepository(openTestDB(t))

	for _, tok := range []string{"first001", "second02", "third003"} {
		require.NoError(t, repo.Insert(ctx, newLink(tok)))
	}

	all, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "third003", all[0].Token)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "second02", page[0].Token)
}

func TestProviderRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewProviderRepository(openTestDB(t))

	p := &models.Provider{Name: "acme", APIURL: "https://acme.example/api", APIToken: "tok-1234"}
	require.NoError(t, repo.Create(ctx, p))
	require.NotZero(t, p.ID)

	err := repo.Create(ctx, &models.Provider{Name: "acme", APIURL: "https://other.example", APIToken: "x"})
	require.ErrorIs(t, err, ErrDuplicateName)

	got, err := repo.GetByName(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, "tok-1234", got.APIToken)

	require.NoError(t, repo.Create(ctx, &models.Provider{Name: "beta", APIURL: "https://beta.example", APIToken: "b"}))
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "acme", list[0].Name)

	require.NoError(t, repo.Delete(ctx, "acme"))
	require.ErrorIs(t, repo.Delete(ctx, "acme"), ErrNotFound)
	_, err = repo.GetByName(ctx, "acme")
	require.ErrorIs(t, err, ErrNotFound)
}
