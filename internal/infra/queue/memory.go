package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("queue closed")

// Memory is an in-process queue. Deliveries are handled one at a time in
// publish order; a failed delivery is retried until it succeeds before the
// next one is handed out.
type Memory struct {
	ch        chan Delivery
	done      chan struct{}
	closeOnce sync.Once
	retry     time.Duration
}

// NewMemory creates a Memory queue holding up to size undelivered messages.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 1024
	}
	return &Memory{
		ch:    make(chan Delivery, size),
		done:  make(chan struct{}),
		retry: 100 * time.Millisecond,
	}
}

func (q *Memory) Publish(ctx context.Context, m Message) (string, error) {
	body, err := encode(m, time.Now())
	if err != nil {
		return "", err
	}
	env, err := decode(body)
	if err != nil {
		return "", err
	}

	d := Delivery{ID: uuid.NewString(), OrderingKey: m.OrderingKey, Envelope: env}
	if err := q.put(ctx, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

// put blocks while the queue is full, until ctx is done or the queue is closed.
func (q *Memory) put(ctx context.Context, d Delivery) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.ch <- d:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run delivers messages to h until ctx is done or the queue is closed.
func (q *Memory) Run(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return nil
		case d := <-q.ch:
			if err := q.deliver(ctx, d, h); err != nil {
				if errors.Is(err, ErrClosed) {
					return nil
				}
				return err
			}
		}
	}
}

func (q *Memory) deliver(ctx context.Context, d Delivery, h Handler) error {
	for {
		if err := h(ctx, d); err == nil {
			return nil
		}

		t := time.NewTimer(q.retry)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-q.done:
			t.Stop()
			return ErrClosed
		}
	}
}

func (q *Memory) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}
