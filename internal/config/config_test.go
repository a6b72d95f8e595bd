package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gnssrelay.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server_address: 10.0.0.5:5555\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerAddress != "10.0.0.5:5555" {
		t.Errorf("server address %q", cfg.ServerAddress)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level %q", cfg.LogLevel)
	}
	if cfg.BackoffInitial != time.Second || cfg.BackoffMax != 30*time.Second {
		t.Errorf("backoff %v/%v", cfg.BackoffInitial, cfg.BackoffMax)
	}
	if cfg.MockStopTimeout != 5*time.Second {
		t.Errorf("mock stop timeout %v", cfg.MockStopTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server_address: tracker.lan:9000
log_level: debug
backoff_initial: 250ms
backoff_max: 10s
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.BackoffInitial != 250*time.Millisecond || cfg.BackoffMax != 10*time.Second {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadMissingServerAddress(t *testing.T) {
	if _, err := Load(writeConfig(t, "log_level: info\n")); err == nil {
		t.Error("missing server_address accepted")
	}
}

func TestLoadBadValues(t *testing.T) {
	cases := []string{
		"server_address: not-an-address\n",
		"server_address: 10.0.0.5:5555\nlog_level: loud\n",
		"server_address: 10.0.0.5:5555\nbackoff_initial: 1m\nbackoff_max: 1s\n",
	}
	for i, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("case %d accepted", i)
		}
	}
}
