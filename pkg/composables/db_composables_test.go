package composables

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestUsePool_MissingPool(t *testing.T) {
	_, err := UsePool(context.Background())
	require.ErrorIs(t, err, ErrNoPool)

	_, err = UseTx(context.Background())
	require.ErrorIs(t, err, ErrNoPool)
}

func TestInTx_WithoutPoolDoesNotRunFn(t *testing.T) {
	called := false
	err := InTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrNoPool)
	require.False(t, called)
}

func TestInTxResult_PropagatesError(t *testing.T) {
	_, err := InTxResult(context.Background(), func(ctx context.Context) (int, error) {
		return 1, errors.New("unreachable")
	})
	require.ErrorIs(t, err, ErrNoPool)
}

func TestUseLogger_Fallback(t *testing.T) {
	fallback := logrus.NewEntry(logrus.New())
	require.Same(t, fallback, UseLogger(context.Background(), fallback))

	bound := logrus.NewEntry(logrus.New()).WithField("component", "test")
	ctx := WithLogger(context.Background(), bound)
	require.Same(t, bound, UseLogger(ctx, fallback))
}
