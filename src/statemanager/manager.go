package statemanager

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/rcmock/src"
	"github.com/Blackdeer1524/rcmock/src/collections"
	"github.com/Blackdeer1524/rcmock/src/pkg/common"
	"github.com/Blackdeer1524/rcmock/src/transactions"
	"github.com/Blackdeer1524/rcmock/src/txns"
)

var (
	ErrCollectionTypeMismatch = errors.New("collection exists with a different type")
	ErrEmptyName              = errors.New("collection name is empty")
)

type options struct {
	log            src.Logger
	lockTimeout    time.Duration
	ids            common.TxnIDSource
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

type Option func(*options)

func WithLogger(log src.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithLockTimeout sets the timeout of lock requests that don't carry one.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}

func WithIDSource(ids common.TxnIDSource) Option {
	return func(o *options) {
		o.ids = ids
	}
}

func WithMeterProvider(p metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = p
	}
}

func WithTracerProvider(p trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = p
	}
}

// Manager owns the lock table and the transaction coordinator of a process
// and hands out named collections that share them.
type Manager struct {
	log   src.Logger
	locks *txns.Manager[string]
	coord *transactions.Coordinator

	mu          sync.Mutex
	collections map[string]any
}

func New(opts ...Option) *Manager {
	o := options{
		log: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	lockOpts := []txns.ManagerOption{
		txns.WithLogger(o.log),
		txns.WithDefaultTimeout(o.lockTimeout),
	}
	if o.meterProvider != nil {
		lockOpts = append(lockOpts, txns.WithMeterProvider(o.meterProvider))
	}
	locks := txns.NewManager[string](lockOpts...)

	coordOpts := []transactions.Option{transactions.WithLogger(o.log)}
	if o.ids != nil {
		coordOpts = append(coordOpts, transactions.WithIDSource(o.ids))
	}
	if o.tracerProvider != nil {
		coordOpts = append(coordOpts, transactions.WithTracerProvider(o.tracerProvider))
	}

	return &Manager{
		log:         o.log,
		locks:       locks,
		coord:       transactions.NewCoordinator(locks, coordOpts...),
		collections: map[string]any{},
	}
}

func (m *Manager) LockManager() *txns.Manager[string] {
	return m.locks
}

func (m *Manager) Coordinator() *transactions.Coordinator {
	return m.coord
}

// CreateTransaction begins a new transaction.
func (m *Manager) CreateTransaction() *transactions.Txn {
	return m.coord.Begin()
}

// TryGet returns the collection registered under name.
func (m *Manager) TryGet(name string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[name]
	return c, ok
}

// Names returns the names of all registered collections, sorted.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func getOrAdd[C any](m *Manager, name string, create func(string, ...collections.Option) C) (C, error) {
	var zero C
	if name == "" {
		return zero, ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.collections[name]; ok {
		c, ok := existing.(C)
		if !ok {
			return zero, errors.Wrapf(
				ErrCollectionTypeMismatch,
				"%q is a %T, not a %T",
				name,
				existing,
				zero,
			)
		}
		return c, nil
	}

	c := create(name, collections.WithLogger(m.log))
	m.collections[name] = c

	m.log.Debugw("collection created",
		zap.String("name", name),
		zap.String("type", fmt.Sprintf("%T", c)),
	)
	return c, nil
}

// GetOrAddQueue returns the queue registered under name, creating it on first
// use.
func GetOrAddQueue[T any](m *Manager, name string) (*collections.Queue[T], error) {
	return getOrAdd(m, name, collections.NewQueue[T])
}

// GetOrAddDictionary returns the dictionary registered under name, creating
// it on first use.
func GetOrAddDictionary[K comparable, V any](
	m *Manager,
	name string,
) (*collections.Dictionary[K, V], error) {
	return getOrAdd(m, name, collections.NewDictionary[K, V])
}
