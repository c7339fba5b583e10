package gateway

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/agentteam/logging"
	"github.com/hupe1980/agentteam/session"
)

const (
	// defaultQueueSize bounds how many messages may wait for one session.
	defaultQueueSize = 32
	// defaultIdleCheck is how often an idle worker checks whether its session
	// still exists.
	defaultIdleCheck = time.Minute
)

// Handler processes messages for discussion sessions. *session.Handler
// satisfies it.
type Handler interface {
	HandleMessage(ctx context.Context, sessionID, text string, emit session.Emitter) error
	Accepts(sessionID, text string) bool
	IsActive(sessionID string) bool
}

// BridgeOptions configures a Bridge.
type BridgeOptions struct {
	// Channels restricts the bridge to these channel ids when non-empty.
	Channels []string
	// QueueSize bounds the backlog of one session. Messages beyond it are
	// dropped so a busy session never holds up the others.
	QueueSize int
	// IdleCheck is the interval at which a waiting worker exits once its
	// session has ended elsewhere, e.g. by idle expiry.
	IdleCheck time.Duration
	Logger    logging.Logger
}

// Bridge feeds inbound chat messages to a Handler. Messages of one session
// are handled strictly in arrival order by a dedicated worker while
// different sessions run in parallel.
type Bridge struct {
	adapter Adapter
	handler Handler
	opts    BridgeOptions
	logger  logging.Logger

	mu      sync.Mutex
	workers map[string]*worker
	wg      sync.WaitGroup
}

type worker struct {
	queue   chan InboundMessage
	pending int // guarded by Bridge.mu
}

// NewBridge creates a bridge between adapter and handler.
func NewBridge(adapter Adapter, handler Handler, optFns ...func(o *BridgeOptions)) (*Bridge, error) {
	if adapter == nil {
		return nil, errors.New("gateway: adapter is required")
	}
	if handler == nil {
		return nil, errors.New("gateway: handler is required")
	}

	opts := BridgeOptions{
		QueueSize: defaultQueueSize,
		IdleCheck: defaultIdleCheck,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.IdleCheck <= 0 {
		opts.IdleCheck = defaultIdleCheck
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Bridge{
		adapter: adapter,
		handler: handler,
		opts:    opts,
		logger:  logging.WithComponent(opts.Logger, "gateway"),
		workers: make(map[string]*worker),
	}, nil
}

// Run connects the adapter and pumps messages until ctx is cancelled or the
// adapter closes its inbound channel. On return the workers are cancelled
// and awaited before the adapter is closed.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("gateway: connect: %w", err)
	}

	inbound, err := b.adapter.Listen(ctx)
	if err != nil {
		_ = b.adapter.Close()
		return fmt.Errorf("gateway: listen: %w", err)
	}

	b.logger.Info("gateway online")

	runCtx, cancel := context.WithCancel(ctx)

	defer func() {
		cancel()
		b.wg.Wait()
		if err := b.adapter.Close(); err != nil {
			b.logger.Warn("close adapter failed", "error", err)
		}
		b.logger.Info("gateway stopped")
	}()

	for {
		select {
		case <-runCtx.Done():
			return nil
		case msg, ok := <-inbound:
			if !ok {
				b.logger.Info("inbound channel closed")
				return nil
			}
			b.Dispatch(runCtx, msg)
		}
	}
}

// Dispatch routes one inbound message to its session worker. Messages for
// a key without a worker are dropped unless they belong to a session or
// start one. Dispatch never blocks: when the session's queue is full the
// message is dropped.
func (b *Bridge) Dispatch(ctx context.Context, msg InboundMessage) {
	if len(b.opts.Channels) > 0 && !slices.Contains(b.opts.Channels, msg.ChannelID) {
		return
	}
	if b.isSelfMessage(msg) {
		return
	}

	key := msg.SessionKey()

	b.mu.Lock()
	w, ok := b.workers[key]
	if !ok {
		if !b.handler.Accepts(key, msg.Text) {
			b.mu.Unlock()
			return
		}
		w = &worker{queue: make(chan InboundMessage, b.opts.QueueSize)}
		b.workers[key] = w
		b.wg.Add(1)
		go b.work(ctx, key, w)
	}
	w.pending++

	select {
	case w.queue <- msg:
		b.mu.Unlock()
	default:
		w.pending--
		b.mu.Unlock()
		b.logger.Warn("session queue full, message dropped", "session_id", key, "user", msg.UserName, "queue_size", b.opts.QueueSize)
	}
}

// isSelfMessage reports whether msg was posted by the bot itself.
func (b *Bridge) isSelfMessage(msg InboundMessage) bool {
	ider, ok := b.adapter.(BotUserIDer)
	if !ok || msg.UserID == "" {
		return false
	}
	return msg.UserID == ider.BotUserID()
}

// ActiveWorkers returns the number of live session workers.
func (b *Bridge) ActiveWorkers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.workers)
}

// work handles the messages of one session and exits once the queue is
// drained and the session no longer exists.
func (b *Bridge) work(ctx context.Context, key string, w *worker) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.opts.IdleCheck)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			delete(b.workers, key)
			b.mu.Unlock()
			return
		case msg := <-w.queue:
			b.handle(ctx, key, msg)

			b.mu.Lock()
			w.pending--
			b.mu.Unlock()

			if b.retire(key, w) {
				return
			}
		case <-ticker.C:
			if b.retire(key, w) {
				b.logger.Debug("worker retired", "session_id", key)
				return
			}
		}
	}
}

// retire removes the worker when nothing is queued and its session is gone.
// Dispatch holds b.mu while enqueueing, so no message can slip in between.
func (b *Bridge) retire(key string, w *worker) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w.pending > 0 || b.handler.IsActive(key) {
		return false
	}

	delete(b.workers, key)
	return true
}

func (b *Bridge) handle(ctx context.Context, key string, msg InboundMessage) {
	emit := func(ctx context.Context, text string) error {
		return b.adapter.Send(ctx, msg.Reply(text))
	}

	if err := b.handler.HandleMessage(ctx, key, msg.Text, emit); err != nil {
		b.logger.Warn("message rejected", "session_id", key, "user", msg.UserName, "error", err)
	}
}
