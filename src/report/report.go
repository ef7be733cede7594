package report

import (
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/Blackdeer1524/rcmock/src/workload"
)

// Report is what a simulation run leaves behind.
type Report struct {
	RunID       uuid.UUID
	StartedAt   time.Time
	Duration    time.Duration
	Workers     int
	AbortRatio  float64
	Committed   int64
	Aborted     int64
	Timeouts    int64
	Enqueued    int64
	Dequeued    int64
	FinalCount  int64
	Consistent  bool
	Collections []string
}

func FromStats(stats workload.Stats, cfg workload.Config, collections []string) Report {
	return Report{
		RunID:       stats.RunID,
		StartedAt:   stats.Started.UTC(),
		Duration:    stats.Duration,
		Workers:     cfg.Workers,
		AbortRatio:  cfg.AbortRatio,
		Committed:   stats.Committed,
		Aborted:     stats.Aborted,
		Timeouts:    stats.LockTimeouts,
		Enqueued:    stats.Enqueued,
		Dequeued:    stats.Dequeued,
		FinalCount:  stats.FinalCount,
		Consistent:  stats.Consistent(),
		Collections: collections,
	}
}

func (r Report) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("run_id", func(e *jx.Encoder) { e.Str(r.RunID.String()) })
		e.Field("started_at", func(e *jx.Encoder) { e.Str(r.StartedAt.Format(time.RFC3339Nano)) })
		e.Field("duration_ms", func(e *jx.Encoder) { e.Int64(r.Duration.Milliseconds()) })
		e.Field("workers", func(e *jx.Encoder) { e.Int(r.Workers) })
		e.Field("abort_ratio", func(e *jx.Encoder) { e.Float64(r.AbortRatio) })
		e.Field("committed", func(e *jx.Encoder) { e.Int64(r.Committed) })
		e.Field("aborted", func(e *jx.Encoder) { e.Int64(r.Aborted) })
		e.Field("lock_timeouts", func(e *jx.Encoder) { e.Int64(r.Timeouts) })
		e.Field("enqueued", func(e *jx.Encoder) { e.Int64(r.Enqueued) })
		e.Field("dequeued", func(e *jx.Encoder) { e.Int64(r.Dequeued) })
		e.Field("final_count", func(e *jx.Encoder) { e.Int64(r.FinalCount) })
		e.Field("consistent", func(e *jx.Encoder) { e.Bool(r.Consistent) })
		e.Field("collections", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, name := range r.Collections {
					e.Str(name)
				}
			})
		})
	})
}

func (r *Report) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "run_id":
			var s string
			if s, err = d.Str(); err != nil {
				return err
			}
			r.RunID, err = uuid.Parse(s)
		case "started_at":
			var s string
			if s, err = d.Str(); err != nil {
				return err
			}
			r.StartedAt, err = time.Parse(time.RFC3339Nano, s)
		case "duration_ms":
			var ms int64
			ms, err = d.Int64()
			r.Duration = time.Duration(ms) * time.Millisecond
		case "workers":
			r.Workers, err = d.Int()
		case "abort_ratio":
			r.AbortRatio, err = d.Float64()
		case "committed":
			r.Committed, err = d.Int64()
		case "aborted":
			r.Aborted, err = d.Int64()
		case "lock_timeouts":
			r.Timeouts, err = d.Int64()
		case "enqueued":
			r.Enqueued, err = d.Int64()
		case "dequeued":
			r.Dequeued, err = d.Int64()
		case "final_count":
			r.FinalCount, err = d.Int64()
		case "consistent":
			r.Consistent, err = d.Bool()
		case "collections":
			r.Collections = r.Collections[:0]
			err = d.Arr(func(d *jx.Decoder) error {
				name, err := d.Str()
				if err != nil {
					return err
				}
				r.Collections = append(r.Collections, name)
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
}

func (r Report) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	e.SetIdent(2)
	r.Encode(&e)
	return e.Bytes(), nil
}

func (r *Report) UnmarshalJSON(data []byte) error {
	return r.Decode(jx.DecodeBytes(data))
}

// Write stores r as JSON at path, creating the parent directories.
func Write(fs afero.Fs, path string, r Report) error {
	data, err := r.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "encode report")
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write report to %s", path)
	}
	return nil
}

func Read(fs afero.Fs, path string) (Report, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Report{}, errors.Wrapf(err, "read report from %s", path)
	}

	var r Report
	if err := r.UnmarshalJSON(data); err != nil {
		return Report{}, errors.Wrapf(err, "decode report from %s", path)
	}
	return r, nil
}
