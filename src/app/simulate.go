package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/rcmock/src"
	"github.com/Blackdeer1524/rcmock/src/cfg"
	"github.com/Blackdeer1524/rcmock/src/pkg/utils"
	"github.com/Blackdeer1524/rcmock/src/report"
	"github.com/Blackdeer1524/rcmock/src/statemanager"
	"github.com/Blackdeer1524/rcmock/src/workload"
)

// Overrides are command line values that take precedence over the config.
// Zero values keep the configured ones.
type Overrides struct {
	Workers      int
	Transactions int
	AbortRatio   float64
	AbortRatioOn bool
	ReportPath   string
	Seed         uint64
}

type SimulationEntrypoint struct {
	ConfigPath string
	Overrides  Overrides

	// Fs is where the report is written. Defaults to the OS filesystem.
	Fs afero.Fs
	// Log is built from the configured environment when nil.
	Log src.Logger

	cfg   cfg.Config
	wcfg  workload.Config
	sm    *statemanager.Manager
	sim   *workload.Simulator
	stats workload.Stats
}

func (e *SimulationEntrypoint) Init(_ context.Context) error {
	config, err := cfg.Load(e.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	e.applyOverrides(&config)

	if err := config.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	e.cfg = config

	if e.Log == nil {
		if e.cfg.Environment == cfg.EnvDev {
			e.Log = utils.Must(zap.NewDevelopment()).Sugar()
		} else {
			e.Log = utils.Must(zap.NewProduction()).Sugar()
		}
	}
	if e.Fs == nil {
		e.Fs = afero.NewOsFs()
	}

	e.sm = statemanager.New(
		statemanager.WithLogger(e.Log),
		statemanager.WithLockTimeout(e.cfg.LockTimeout),
	)

	e.wcfg = e.workloadConfig()
	e.sim, err = workload.New(e.sm, e.wcfg, e.Log)
	if err != nil {
		return fmt.Errorf("create simulator: %w", err)
	}

	return nil
}

func (e *SimulationEntrypoint) applyOverrides(c *cfg.Config) {
	if e.Overrides.Workers > 0 {
		c.Workers = e.Overrides.Workers
	}
	if e.Overrides.Transactions > 0 {
		c.Transactions = e.Overrides.Transactions
	}
	if e.Overrides.AbortRatioOn {
		c.AbortRatio = e.Overrides.AbortRatio
	}
	if e.Overrides.ReportPath != "" {
		c.ReportPath = e.Overrides.ReportPath
	}
}

func (e *SimulationEntrypoint) workloadConfig() workload.Config {
	seed := e.Overrides.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return workload.Config{
		Workers:           e.cfg.Workers,
		Transactions:      e.cfg.Transactions,
		OpsPerTransaction: e.cfg.OpsPerTransaction,
		AbortRatio:        e.cfg.AbortRatio,
		LockTimeout:       e.cfg.LockTimeout,
		Seed:              seed,
	}
}

func (e *SimulationEntrypoint) Run(ctx context.Context) error {
	stats, err := e.sim.Run(ctx)
	e.stats = stats
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	if !stats.Consistent() {
		e.Log.Errorw("collections disagree with committed work",
			zap.Int64("enqueued", stats.Enqueued),
			zap.Int64("dequeued", stats.Dequeued),
			zap.Int64("final_count", stats.FinalCount),
			zap.Int64("ledger_enqueued", stats.LedgerEnqueued),
			zap.Int64("ledger_dequeued", stats.LedgerDequeued),
		)
		return fmt.Errorf("simulation %s ended inconsistent", stats.RunID)
	}

	if e.cfg.ReportPath == "" {
		return nil
	}

	r := report.FromStats(stats, e.wcfg, e.sm.Names())
	if err := report.Write(e.Fs, e.cfg.ReportPath, r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	e.Log.Infow("report written", zap.String("path", e.cfg.ReportPath))

	return nil
}

// Stats returns the result of the last run.
func (e *SimulationEntrypoint) Stats() workload.Stats {
	return e.stats
}

func (e *SimulationEntrypoint) Close() (err error) {
	if e.Log != nil {
		// stderr can't be synced on linux
		_ = e.Log.Sync()
	}

	return nil
}
