package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	cases := map[Kind]int{
		KindMissingParameter:          http.StatusBadRequest,
		KindInvalidDestinationURL:     http.StatusBadRequest,
		KindProviderTimeout:           http.StatusGatewayTimeout,
		KindProviderUnauthorized:      http.StatusBadGateway,
		KindProviderUnreachable:       http.StatusBadGateway,
		KindProviderMalformedResponse: http.StatusBadGateway,
		KindProviderBusinessError:     http.StatusBadGateway,
		KindTokenExhausted:            http.StatusInternalServerError,
		KindStoreUnavailable:          http.StatusInternalServerError,
		KindNotFound:                  http.StatusNotFound,
	}
	for kind, want := range cases {
		require.Equal(t, want, StatusFor(kind), kind)
	}
}

func TestBridgeError_WireStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, "error-classified", New(KindProviderBusinessError, "x").WireStatus())
	require.Equal(t, "error", New(KindMissingParameter, "x").WireStatus())
	require.Equal(t, "error", New(KindTokenExhausted, "x").WireStatus())
}

func TestAs_FindsWrappedError(t *testing.T) {
	t.Parallel()

	cause := errors.New("db down")
	err := fmt.Errorf("mint: %w", Wrap(KindStoreUnavailable, "insert failed", cause))

	be, ok := As(err)
	require.True(t, ok)
	require.Equal(t, KindStoreUnavailable, be.Kind)
	require.ErrorIs(t, err, cause)
	require.Equal(t, KindStoreUnavailable, KindOf(err))
	require.Equal(t, KindNotFound, KindOf(ErrTokenNotFound))
}

func TestKind_Retryable(t *testing.T) {
	t.Parallel()

	require.True(t, KindTokenExhausted.Retryable())
	require.True(t, KindProviderTimeout.Retryable())
	require.False(t, KindProviderBusinessError.Retryable())
	require.False(t, KindNotFound.Retryable())
}
