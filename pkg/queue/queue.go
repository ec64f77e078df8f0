// Package queue is a small at-least-once job queue with delayed retries and a
// dead letter list. Storage is pluggable; RedisStore is the production one.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"EquityLens/pkg/logger"
)

// ErrEmpty is returned by Store.Pop when nothing arrived before the timeout.
var ErrEmpty = errors.New("queue: empty")

// Store persists pending, delayed and dead messages.
type Store interface {
	Push(ctx context.Context, data []byte) error
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
	Schedule(ctx context.Context, data []byte, at time.Time) error
	// PromoteDue moves delayed messages whose time has come back to pending.
	PromoteDue(ctx context.Context, now time.Time) (int, error)
	DeadLetter(ctx context.Context, data []byte) error
}

// Message is the envelope stored for every job.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Config contains the configuration for the queue.
type Config struct {
	Workers      int           // number of workers
	RetryLimit   int           // retries before dead-lettering
	RetryDelay   time.Duration // base delay, multiplied by the attempt number
	PollTimeout  time.Duration // how long a worker blocks on Pop
	PromoteEvery time.Duration // retry promotion interval
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.cfg.Workers = n
		}
	}
}

func WithRetry(limit int, delay time.Duration) Option {
	return func(q *Queue) {
		q.cfg.RetryLimit = limit
		q.cfg.RetryDelay = delay
	}
}

func WithPolling(pop, promote time.Duration) Option {
	return func(q *Queue) {
		if pop > 0 {
			q.cfg.PollTimeout = pop
		}
		if promote > 0 {
			q.cfg.PromoteEvery = promote
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(q *Queue) { q.l = l }
}

func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// Queue dispatches stored messages to registered jobs.
type Queue struct {
	store Store
	cfg   Config
	l     *logger.Logger
	now   func() time.Time

	mu      sync.RWMutex
	jobs    map[string]Job
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	seq     uint64
}

func New(store Store, opts ...Option) *Queue {
	q := &Queue{
		store: store,
		cfg: Config{
			Workers:      1,
			RetryLimit:   3,
			RetryDelay:   10 * time.Second,
			PollTimeout:  time.Second,
			PromoteEvery: 5 * time.Second,
		},
		l:    logger.Nop(),
		now:  time.Now,
		jobs: make(map[string]Job),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// RegisterJob must be called before Start.
func (q *Queue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.jobs[job.Type()]; exists {
		q.l.Warn("job already registered", logger.String("type", job.Type()))
		return
	}
	q.jobs[job.Type()] = job
	q.l.Info("job registered", logger.String("type", job.Type()))
}

// Enqueue stores payload as JSON. When jobs are registered, unknown types
// are rejected; a queue without jobs acts as a pure producer.
func (q *Queue) Enqueue(ctx context.Context, msgType string, payload any) error {
	q.mu.Lock()
	if len(q.jobs) > 0 {
		if _, ok := q.jobs[msgType]; !ok {
			q.mu.Unlock()
			return fmt.Errorf("no job registered for type: %s", msgType)
		}
	}
	q.seq++
	seq := q.seq
	q.mu.Unlock()

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	now := q.now()
	msg := Message{
		ID:         strconv.FormatInt(now.UnixNano(), 36) + "-" + strconv.FormatUint(seq, 36),
		Type:       msgType,
		Payload:    raw,
		EnqueuedAt: now,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := q.store.Push(ctx, data); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

// Start launches the workers and the retry promoter.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return errors.New("queue already running")
	}
	if len(q.jobs) == 0 {
		return errors.New("queue: no jobs registered")
	}
	q.running = true
	ctx, q.cancel = context.WithCancel(ctx)

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	q.wg.Add(1)
	go q.promoter(ctx)

	q.l.Info("job queue started", logger.Int("workers", q.cfg.Workers))
	return nil
}

// Stop cancels the workers and waits for in-flight jobs.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for queue workers: %w", ctx.Err())
	case <-done:
		q.l.Info("job queue stopped")
		return nil
	}
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	for ctx.Err() == nil {
		data, err := q.store.Pop(ctx, q.cfg.PollTimeout)
		if err != nil {
			if errors.Is(err, ErrEmpty) || ctx.Err() != nil {
				continue
			}
			q.l.Error("queue pop failed", logger.Int("worker_id", id), logger.Error(err))
			sleep(ctx, q.cfg.PollTimeout)
			continue
		}
		q.process(ctx, data)
	}
}

func (q *Queue) process(ctx context.Context, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		q.l.Error("unmarshal message", logger.Error(err))
		q.deadLetter(data)
		return
	}

	q.mu.RLock()
	job, ok := q.jobs[msg.Type]
	q.mu.RUnlock()
	if !ok {
		q.l.Error("no job found", logger.String("type", msg.Type), logger.String("id", msg.ID))
		q.deadLetter(data)
		return
	}

	start := q.now()
	err := job.Handle(ctx, msg.Payload)
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		// shutting down; hand the message back untouched
		if perr := q.store.Push(context.Background(), data); perr != nil {
			q.l.Error("requeue on shutdown failed", logger.String("id", msg.ID), logger.Error(perr))
		}
		return
	}

	q.l.Warn("job failed",
		logger.String("id", msg.ID),
		logger.String("type", msg.Type),
		logger.Int("attempt", msg.Attempts+1),
		logger.Duration("elapsed", q.now().Sub(start)),
		logger.Error(err),
	)
	if msg.Attempts >= q.cfg.RetryLimit {
		q.l.Error("max retries reached", logger.String("id", msg.ID), logger.String("type", msg.Type))
		q.deadLetter(data)
		return
	}

	msg.Attempts++
	retry, err := json.Marshal(msg)
	if err != nil {
		q.l.Error("marshal retry", logger.Error(err))
		return
	}
	at := q.now().Add(time.Duration(msg.Attempts) * q.cfg.RetryDelay)
	if err := q.store.Schedule(context.Background(), retry, at); err != nil {
		q.l.Error("schedule retry", logger.String("id", msg.ID), logger.Error(err))
	}
}

func (q *Queue) promoter(ctx context.Context) {
	defer q.wg.Done()
	ticker := time.NewTicker(q.cfg.PromoteEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := q.store.PromoteDue(ctx, q.now()); err != nil && ctx.Err() == nil {
				q.l.Error("promote retries", logger.Error(err))
			}
		}
	}
}

func (q *Queue) deadLetter(data []byte) {
	if err := q.store.DeadLetter(context.Background(), data); err != nil {
		q.l.Error("dead letter", logger.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
