package workload

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/panjf2000/ants"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/rcmock/src"
	"github.com/Blackdeer1524/rcmock/src/collections"
	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
	"github.com/Blackdeer1524/rcmock/src/pkg/utils"
	"github.com/Blackdeer1524/rcmock/src/statemanager"
	"github.com/Blackdeer1524/rcmock/src/transactions"
	"github.com/Blackdeer1524/rcmock/src/txns"
)

type opKind int

const (
	opEnqueue opKind = iota
	opDequeue
	opPeek
	opCount
	opKinds
)

// counts is the number of items an operation enqueued and dequeued.
type counts = utils.Pair[int64, int64]

// Simulator runs many short transactions against a queue from a pool of
// workers. Each transaction also keeps enqueue/dequeue counters in a ledger
// dictionary, so the two collections can be checked against each other.
type Simulator struct {
	log src.Logger
	cfg Config
	sm  *statemanager.Manager

	queue  *collections.Queue[string]
	ledger *collections.Dictionary[string, int64]

	seedMu sync.Mutex
	rng    *rand.Rand

	committed    atomic.Int64
	aborted      atomic.Int64
	lockTimeouts atomic.Int64
	enqueued     atomic.Int64
	dequeued     atomic.Int64
}

func New(sm *statemanager.Manager, cfg Config, log src.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid workload config")
	}

	queue, err := statemanager.GetOrAddQueue[string](sm, QueueName)
	if err != nil {
		return nil, err
	}
	ledger, err := statemanager.GetOrAddDictionary[string, int64](sm, LedgerName)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Simulator{
		log:    log,
		cfg:    cfg,
		sm:     sm,
		queue:  queue,
		ledger: ledger,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Run executes the configured number of transactions and waits for all of
// them. A canceled ctx stops submitting new ones.
func (s *Simulator) Run(ctx context.Context) (Stats, error) {
	stats := Stats{
		RunID:   uuid.New(),
		Started: time.Now(),
	}

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return stats, errors.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	s.log.Infow("simulation started",
		zap.Stringer("run_id", stats.RunID),
		zap.Int("workers", s.cfg.Workers),
		zap.Int("transactions", s.cfg.Transactions),
	)

	var wg sync.WaitGroup
	var runErr error
	for i := 0; i < s.cfg.Transactions; i++ {
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}

		seed := s.nextSeed()
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			s.runTxn(ctx, rand.New(rand.NewPCG(seed, uint64(i))))
		})
		if err != nil {
			wg.Done()
			runErr = errors.Wrap(err, "submit transaction")
			break
		}
	}
	wg.Wait()

	stats.Duration = time.Since(stats.Started)
	stats.Committed = s.committed.Load()
	stats.Aborted = s.aborted.Load()
	stats.LockTimeouts = s.lockTimeouts.Load()
	stats.Enqueued = s.enqueued.Load()
	stats.Dequeued = s.dequeued.Load()

	if err := s.collectFinal(context.WithoutCancel(ctx), &stats); err != nil {
		return stats, err
	}

	s.log.Infow("simulation finished",
		zap.Stringer("run_id", stats.RunID),
		zap.Int64("committed", stats.Committed),
		zap.Int64("aborted", stats.Aborted),
		zap.Int64("lock_timeouts", stats.LockTimeouts),
		zap.Int64("final_count", stats.FinalCount),
		zap.Bool("consistent", stats.Consistent()),
		zap.Duration("duration", stats.Duration),
	)
	return stats, runErr
}

func (s *Simulator) nextSeed() uint64 {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	return s.rng.Uint64()
}

// runTxn does a random sequence of queue operations, records the net effect
// in the ledger and then commits or aborts.
func (s *Simulator) runTxn(ctx context.Context, rng *rand.Rand) {
	tx := s.sm.CreateTransaction()
	defer func() {
		assert.NoError(tx.Close(context.WithoutCancel(ctx)))
	}()

	var enqueued, dequeued int64
	for range s.cfg.OpsPerTransaction {
		n, err := s.runOp(ctx, tx, opKind(rng.IntN(int(opKinds))))
		if err != nil {
			s.giveUp(ctx, tx, err)
			return
		}
		enqueued += n.First
		dequeued += n.Second
	}

	if err := s.recordInLedger(ctx, tx, enqueued, dequeued); err != nil {
		s.giveUp(ctx, tx, err)
		return
	}

	if rng.Float64() < s.cfg.AbortRatio {
		if err := tx.Abort(ctx); err == nil {
			s.aborted.Add(1)
		}
		return
	}

	if err := tx.Commit(ctx); err != nil {
		s.log.Warnw("commit failed", zap.Uint64("txn_id", uint64(tx.ID())), zap.Error(err))
		return
	}
	s.committed.Add(1)
	s.enqueued.Add(enqueued)
	s.dequeued.Add(dequeued)
}

func (s *Simulator) opOptions() []collections.OpOption {
	return []collections.OpOption{collections.WithTimeout(s.cfg.LockTimeout)}
}

func (s *Simulator) runOp(
	ctx context.Context,
	tx *transactions.Txn,
	kind opKind,
) (counts, error) {
	switch kind {
	case opEnqueue:
		if err := s.queue.Enqueue(ctx, tx, uuid.NewString(), s.opOptions()...); err != nil {
			return counts{}, err
		}
		return counts{First: 1}, nil
	case opDequeue:
		item, err := s.queue.TryDequeue(ctx, tx, s.opOptions()...)
		if err != nil {
			return counts{}, err
		}
		if item.IsSome() {
			return counts{Second: 1}, nil
		}
		return counts{}, nil
	case opPeek:
		_, err := s.queue.TryPeek(ctx, tx, s.opOptions()...)
		return counts{}, err
	case opCount:
		_, err := s.queue.Count(ctx, tx, s.opOptions()...)
		return counts{}, err
	default:
		return counts{}, errors.Errorf("unknown op %d", kind)
	}
}

func (s *Simulator) recordInLedger(
	ctx context.Context,
	tx *transactions.Txn,
	enqueued, dequeued int64,
) error {
	add := func(key string, delta int64) error {
		if delta == 0 {
			return nil
		}
		_, err := s.ledger.AddOrUpdate(ctx, tx, key, delta,
			func(_ string, old int64) int64 { return old + delta },
			s.opOptions()...,
		)
		return err
	}

	if err := add(ledgerEnqueued, enqueued); err != nil {
		return err
	}
	return add(ledgerDequeued, dequeued)
}

func (s *Simulator) giveUp(ctx context.Context, tx *transactions.Txn, cause error) {
	if errors.Is(cause, txns.ErrLockTimeout) {
		s.lockTimeouts.Add(1)
	}

	if err := tx.Abort(context.WithoutCancel(ctx)); err != nil {
		return
	}
	s.aborted.Add(1)

	s.log.Debugw("transaction gave up",
		zap.Uint64("txn_id", uint64(tx.ID())),
		zap.Error(cause),
	)
}

func (s *Simulator) collectFinal(ctx context.Context, stats *Stats) error {
	tx := s.sm.CreateTransaction()
	defer func() {
		assert.NoError(tx.Close(ctx))
	}()

	count, err := s.queue.Count(ctx, tx)
	if err != nil {
		return errors.Wrap(err, "count queue")
	}
	stats.FinalCount = count

	enqueued, err := s.ledger.TryGetValue(ctx, tx, ledgerEnqueued)
	if err != nil {
		return errors.Wrap(err, "read ledger")
	}
	dequeued, err := s.ledger.TryGetValue(ctx, tx, ledgerDequeued)
	if err != nil {
		return errors.Wrap(err, "read ledger")
	}
	stats.LedgerEnqueued = enqueued.ValueOr(0)
	stats.LedgerDequeued = dequeued.ValueOr(0)

	return tx.Commit(ctx)
}
