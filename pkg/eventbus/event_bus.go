package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/approvals/pkg/serrors"
)

var ErrNoSubscribers = serrors.NewError("EVENTBUS_NO_SUBSCRIBERS", "no matching subscribers", "")

// Handler reacts to a published event of type T.
type Handler[T any] func(ctx context.Context, event T) error

// Bus fans an event out to every subscriber synchronously.
type Bus[T any] interface {
	Publish(ctx context.Context, event T)
	PublishE(ctx context.Context, event T) error
	Subscribe(handler Handler[T])
	SubscribersCount() int
}

type publisherImpl[T any] struct {
	log      *logrus.Logger
	mu       sync.RWMutex
	handlers []Handler[T]
}

func NewEventPublisher[T any](log *logrus.Logger) Bus[T] {
	return &publisherImpl[T]{log: log}
}

// Publish delivers event to all subscribers. Handler errors and panics are
// logged and never reach the caller.
func (p *publisherImpl[T]) Publish(ctx context.Context, event T) {
	if err := p.PublishE(ctx, event); err != nil && p.log != nil {
		if errors.Is(err, ErrNoSubscribers) {
			p.log.WithContext(ctx).Debugf("eventbus.Publish: no subscribers for %T", event)
			return
		}
		p.log.WithContext(ctx).WithError(err).Errorf("eventbus.Publish: %T handler failed", event)
	}
}

// PublishE delivers event to all subscribers and joins their errors.
func (p *publisherImpl[T]) PublishE(ctx context.Context, event T) error {
	p.mu.RLock()
	handlers := append([]Handler[T](nil), p.handlers...)
	p.mu.RUnlock()

	if len(handlers) == 0 {
		return ErrNoSubscribers
	}

	var errs []error
	for i, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					errs = append(errs, fmt.Errorf("eventbus: handler #%d panicked: %v", i, r))
				}
			}()
			if err := handler(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}()
	}
	return errors.Join(errs...)
}

func (p *publisherImpl[T]) Subscribe(handler Handler[T]) {
	if handler == nil {
		panic("eventbus: nil handler")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
}

func (p *publisherImpl[T]) SubscribersCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handlers)
}
