package cfg

import (
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "RCMOCK"

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"

	DefaultEnv = EnvDev
)

type Environment string

func (e Environment) Validate() error {
	if e != EnvDev && e != EnvProd {
		return errors.New("environment must be either dev or prod")
	}

	return nil
}

type Config struct {
	Environment Environment `default:"dev"`

	LockTimeout       time.Duration `split_words:"true" default:"4s"`
	Workers           int           `default:"8"`
	Transactions      int           `default:"1000"`
	OpsPerTransaction int           `split_words:"true" default:"4"`
	AbortRatio        float64       `split_words:"true" default:"0.25"`

	// ReportPath is where the simulation report goes. Empty means no report.
	ReportPath string `split_words:"true"`
}

// Load reads the optional .env file at path into the process environment
// and then builds the config from RCMOCK_* variables. Variables that are
// already set win over the file. The result is not validated: callers apply
// their overrides first and then call Validate.
func Load(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return Config{}, errors.Wrapf(err, "load %s", path)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, errors.Wrap(err, "load .env")
		}
	}

	var c Config
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return Config{}, errors.Wrap(err, "process env")
	}

	return c, nil
}

func (c Config) Validate() error {
	if err := c.Environment.Validate(); err != nil {
		return errors.Wrap(err, "environment validation")
	}

	switch {
	case c.LockTimeout <= 0:
		return errors.Errorf("lock timeout must be positive, got %s", c.LockTimeout)
	case c.Workers <= 0:
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	case c.Transactions < 0:
		return errors.Errorf("transactions must not be negative, got %d", c.Transactions)
	case c.OpsPerTransaction <= 0:
		return errors.Errorf("ops per transaction must be positive, got %d", c.OpsPerTransaction)
	case c.AbortRatio < 0 || c.AbortRatio > 1:
		return errors.Errorf("abort ratio must be within [0, 1], got %v", c.AbortRatio)
	}
	return nil
}
