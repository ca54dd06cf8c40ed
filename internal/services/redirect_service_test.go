package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linkbridge/linkbridge/internal/cache"
	customerrors "github.com/linkbridge/linkbridge/internal/errors"
)

func TestRedirectService_Resolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newMemLinkRepo()
	links := NewLinkService(repo, nil, LinkOptions{}, nil)
	link, err := links.Mint(ctx, "https://example.com", "https://x.co/abc")
	require.NoError(t, err)

	rec := &recorder{accept: true}
	svc := NewRedirectService(repo, nil, rec, nil)

	for i := 0; i < 3; i++ {
		target, err := svc.Resolve(ctx, link.Token)
		require.NoError(t, err)
		require.Equal(t, "https://x.co/abc", target)
	}
	require.Equal(t, 3, rec.count())
	require.Equal(t, link.ID, rec.events[0].LinkID)
}

func TestRedirectService_UnknownTokenHasNoSideEffects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newMemLinkRepo()
	rec := &recorder{accept: true}
	svc := NewRedirectService(repo, nil, rec, nil)

	_, err := svc.Resolve(ctx, "unknown1")
	be := requireKind(t, err, customerrors.KindNotFound)
	require.Equal(t, 404, be.HTTPStatus())
	require.ErrorIs(t, err, customerrors.ErrTokenNotFound)

	_, err = svc.Resolve(ctx, "../../etc")
	requireKind(t, err, customerrors.KindNotFound)

	require.Zero(t, rec.count())
	n, _ := repo.Count(ctx)
	require.Zero(t, n)
}

func TestRedirectService_ServesFromCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	local, err := cache.NewLocalCache(100, 0)
	require.NoError(t, err)
	defer local.Close()

	repo := newMemLinkRepo()
	link, err := NewLinkService(repo, local, LinkOptions{}, nil).Mint(ctx, "https://example.com", "https://x.co/c")
	require.NoError(t, err)
	local.Wait()

	svc := NewRedirectService(repo, local, &recorder{accept: true}, nil)
	target, err := svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	require.Equal(t, "https://x.co/c", target)
	require.Zero(t, repo.findCount())
}

func TestRedirectService_StoreUnavailable(t *testing.T) {
	t.Parallel()

	repo := &mockLinkRepo{}
	repo.On("FindByToken", mock.Anything, "tok12345").Return(nil, errors.New("connection reset")).Once()

	rec := &recorder{accept: true}
	svc := NewRedirectService(repo, nil, rec, nil)
	_, err := svc.Resolve(context.Background(), "tok12345")
	be := requireKind(t, err, customerrors.KindStoreUnavailable)
	require.Equal(t, 500, be.HTTPStatus())
	require.Zero(t, rec.count())
	repo.AssertExpectations(t)
}

func TestRedirectService_DroppedVisitStillRedirects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newMemLinkRepo()
	link, err := NewLinkService(repo, nil, LinkOptions{}, nil).Mint(ctx, "https://example.com", "https://x.co/d")
	require.NoError(t, err)

	svc := NewRedirectService(repo, nil, &recorder{accept: false}, nil)
	target, err := svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	require.Equal(t, "https://x.co/d", target)
}
