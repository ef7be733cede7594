package transactions

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/rcmock/src"
	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
	"github.com/Blackdeer1524/rcmock/src/pkg/common"
	"github.com/Blackdeer1524/rcmock/src/txns"
)

const tracerName = "github.com/Blackdeer1524/rcmock/src/transactions"

type options struct {
	log            src.Logger
	ids            common.TxnIDSource
	tracerProvider trace.TracerProvider
}

type Option func(*options)

func WithLogger(log src.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithIDSource replaces the process-local counter that numbers transactions.
func WithIDSource(ids common.TxnIDSource) Option {
	return func(o *options) {
		o.ids = ids
	}
}

func WithTracerProvider(p trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = p
	}
}

// Coordinator begins transactions and keeps track of the active ones.
type Coordinator struct {
	locks  LockManager
	ids    common.TxnIDSource
	log    src.Logger
	tracer trace.Tracer

	mu     sync.RWMutex
	active map[common.TxnID]*Txn
}

func NewCoordinator(locks LockManager, opts ...Option) *Coordinator {
	o := options{
		log:            zap.NewNop().Sugar(),
		ids:            common.NewCounterTxnIDSource(common.NilTxnID),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Coordinator{
		locks:  locks,
		ids:    o.ids,
		log:    o.log,
		tracer: o.tracerProvider.Tracer(tracerName),
		active: map[common.TxnID]*Txn{},
	}
}

// Begin starts a new transaction with an empty lock set and undo log.
func (c *Coordinator) Begin() *Txn {
	id := c.ids.NextTxnID()
	assert.Assert(id != common.NilTxnID, "id source handed out the nil txn id")

	t := newTxn(id, c)

	c.mu.Lock()
	_, exists := c.active[id]
	assert.Assert(!exists, "txn id %d is already in use", id)
	c.active[id] = t
	c.mu.Unlock()

	c.log.Debugw("transaction began", zap.Uint64("txn_id", uint64(id)))
	return t
}

// Join returns the active transaction with the given id.
func (c *Coordinator) Join(id common.TxnID) (*Txn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.active[id]
	if !ok {
		return nil, errors.Wrapf(ErrTxnNotFound, "txn %d", id)
	}
	return t, nil
}

// BeginOrJoin returns the active transaction carried by ctx. If there is
// none, it begins one and returns a ctx that carries it. Joining is
// idempotent: the same transaction comes back until it ends.
func (c *Coordinator) BeginOrJoin(ctx context.Context) (context.Context, *Txn) {
	if t, ok := FromContext(ctx); ok && t.coord == c && t.IsActive() {
		return ctx, t
	}

	t := c.Begin()
	return WithTxn(ctx, t), t
}

// Active returns the ids of the transactions that haven't ended yet.
func (c *Coordinator) Active() []common.TxnID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]common.TxnID, 0, len(c.active))
	for id := range c.active {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// finish runs once per transaction, after its terminal state was set.
func (c *Coordinator) finish(t *Txn) {
	c.locks.ReleaseAll(t.id)

	t.mu.Lock()
	t.locks = map[string]txns.LockMode{}
	t.mu.Unlock()

	c.mu.Lock()
	delete(c.active, t.id)
	c.mu.Unlock()
}
