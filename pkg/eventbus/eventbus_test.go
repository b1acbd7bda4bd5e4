package eventbus

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/approvals/pkg/logging"
)

type event struct {
	data string
}

func TestPublisher_PublishE_NoSubscribers(t *testing.T) {
	bus := NewEventPublisher[*event](logging.ConsoleLogger(logrus.WarnLevel))
	err := bus.PublishE(context.Background(), &event{data: "x"})
	require.ErrorIs(t, err, ErrNoSubscribers)
}

func TestPublisher_Subscribe(t *testing.T) {
	bus := NewEventPublisher[*event](logging.ConsoleLogger(logrus.WarnLevel))
	var got []string
	bus.Subscribe(func(ctx context.Context, e *event) error {
		got = append(got, "first:"+e.data)
		return nil
	})
	bus.Subscribe(func(ctx context.Context, e *event) error {
		got = append(got, "second:"+e.data)
		return nil
	})

	require.Equal(t, 2, bus.SubscribersCount())
	require.NoError(t, bus.PublishE(context.Background(), &event{data: "test"}))
	require.Equal(t, []string{"first:test", "second:test"}, got)
}

func TestPublisher_PublishE_CollectsErrorsAndPanics(t *testing.T) {
	bus := NewEventPublisher[*event](nil)
	boom := errors.New("boom")
	called := false
	bus.Subscribe(func(ctx context.Context, e *event) error { return boom })
	bus.Subscribe(func(ctx context.Context, e *event) error { panic("kaput") })
	bus.Subscribe(func(ctx context.Context, e *event) error {
		called = true
		return nil
	})

	err := bus.PublishE(context.Background(), &event{})
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "panicked: kaput")
	require.True(t, called, "later handlers still run after a failure")
}

func TestPublisher_Publish_LogsHandlerFailure(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.WarnLevel)

	bus := NewEventPublisher[*event](log)
	bus.Subscribe(func(ctx context.Context, e *event) error { return errors.New("sink down") })
	bus.Publish(context.Background(), &event{})

	require.Contains(t, buf.String(), "handler failed")
	require.Contains(t, buf.String(), "sink down")
}
