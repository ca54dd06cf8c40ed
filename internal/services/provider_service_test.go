package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/internal/config"
	customerrors "github.com/linkbridge/linkbridge/internal/errors"
	"github.com/linkbridge/linkbridge/internal/repository"
	"github.com/linkbridge/linkbridge/internal/store"
)

func TestProviderService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := store.Open(config.DatabaseConfig{Driver: "sqlite", Name: store.MemoryName}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close(db) //nolint:errcheck

	svc := NewProviderService(repository.NewProviderRepository(db))

	p, err := svc.Register(ctx, "acme", "acme.example/api", "tok-9876")
	require.NoError(t, err)
	require.Equal(t, "https://acme.example/api", p.APIURL)
	require.Equal(t, "****9876", p.TokenHint())

	_, err = svc.Register(ctx, "acme", "https://acme.example/api", "other")
	require.ErrorIs(t, err, ErrProviderExists)

	_, err = svc.Register(ctx, "", "https://acme.example/api", "x")
	requireKind(t, err, customerrors.KindMissingParameter)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Remove(ctx, "acme"))
	requireKind(t, svc.Remove(ctx, "acme"), customerrors.KindNotFound)
}
