package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configVars = []string{
	"RCMOCK_ENVIRONMENT",
	"RCMOCK_LOCK_TIMEOUT",
	"RCMOCK_WORKERS",
	"RCMOCK_TRANSACTIONS",
	"RCMOCK_OPS_PER_TRANSACTION",
	"RCMOCK_ABORT_RATIO",
	"RCMOCK_REPORT_PATH",
}

// unsetConfigVars clears the config variables for the duration of the test.
func unsetConfigVars(t *testing.T) {
	t.Helper()

	for _, name := range configVars {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetConfigVars(t)
	t.Chdir(t.TempDir())

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Config{
		Environment:       EnvDev,
		LockTimeout:       4 * time.Second,
		Workers:           8,
		Transactions:      1000,
		OpsPerTransaction: 4,
		AbortRatio:        0.25,
	}, c)
}

func TestLoadFromEnv(t *testing.T) {
	unsetConfigVars(t)
	t.Chdir(t.TempDir())

	t.Setenv("RCMOCK_ENVIRONMENT", "prod")
	t.Setenv("RCMOCK_LOCK_TIMEOUT", "150ms")
	t.Setenv("RCMOCK_WORKERS", "2")
	t.Setenv("RCMOCK_ABORT_RATIO", "0")
	t.Setenv("RCMOCK_REPORT_PATH", "/tmp/report.json")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EnvProd, c.Environment)
	assert.Equal(t, 150*time.Millisecond, c.LockTimeout)
	assert.Equal(t, 2, c.Workers)
	assert.Zero(t, c.AbortRatio)
	assert.Equal(t, "/tmp/report.json", c.ReportPath)
}

func TestLoadFromFile(t *testing.T) {
	unsetConfigVars(t)

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"RCMOCK_WORKERS=3\nRCMOCK_TRANSACTIONS=10\n",
	), 0o600))

	// the environment wins over the file
	t.Setenv("RCMOCK_TRANSACTIONS", "20")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, 20, c.Transactions)
}

func TestLoadMissingFile(t *testing.T) {
	unsetConfigVars(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	unsetConfigVars(t)
	t.Chdir(t.TempDir())
	t.Setenv("RCMOCK_LOCK_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "environment", key: "RCMOCK_ENVIRONMENT", value: "staging"},
		{name: "lock timeout", key: "RCMOCK_LOCK_TIMEOUT", value: "0s"},
		{name: "workers", key: "RCMOCK_WORKERS", value: "0"},
		{name: "transactions", key: "RCMOCK_TRANSACTIONS", value: "-5"},
		{name: "ops", key: "RCMOCK_OPS_PER_TRANSACTION", value: "0"},
		{name: "abort ratio", key: "RCMOCK_ABORT_RATIO", value: "1.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetConfigVars(t)
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			// out of range values load fine so that callers can still
			// override them
			c, err := Load("")
			require.NoError(t, err)
			require.Error(t, c.Validate())
		})
	}
}
