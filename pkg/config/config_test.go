package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
environment: test
server:
  port: 9090
  read_timeout: 5s
  write_timeout: 10s
  shutdown_timeout: 5s
logging:
  level: debug
  format: console
  output: stdout
clickhouse:
  host: ch.internal
  port: 9000
  database: market
  user: default
breadth:
  index: SPX
  history: 8760h
  short_windows: [5, 12, 25]
  medium_windows: [40, 80]
  long_windows: [50, 100, 200]
oscillator:
  mode: zscore
  lookback: 252
  zmode: swing
scheduler:
  enabled: true
  spec: "0 30 16 * * 1-5"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Breadth.Index != "SPX" {
		t.Fatalf("index = %q", cfg.Breadth.Index)
	}
	if cfg.Breadth.History != 8760*time.Hour {
		t.Fatalf("history = %v", cfg.Breadth.History)
	}
	ws, err := cfg.WindowSet()
	if err != nil {
		t.Fatalf("WindowSet: %v", err)
	}
	if ws.Max() != 200 {
		t.Fatalf("max window = %d, want 200", ws.Max())
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7777")
	t.Setenv("CLICKHOUSE_HOST", "ch.override")
	t.Setenv("BREADTH_INDEX", "NDX")

	cfg, err := LoadWithEnv(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Fatalf("port = %d, want env override 7777", cfg.Server.Port)
	}
	if cfg.ClickHouse.Host != "ch.override" {
		t.Fatalf("clickhouse host = %q", cfg.ClickHouse.Host)
	}
	if cfg.Breadth.Index != "NDX" {
		t.Fatalf("index = %q, want NDX", cfg.Breadth.Index)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing environment", `
breadth:
  index: SPX
  history: 8760h
`},
		{"missing index", `
environment: test
breadth:
  history: 8760h
`},
		{"negative epsilon", `
environment: test
breadth:
  index: SPX
  history: 8760h
  epsilon: -0.01
`},
		{"bad oscillator mode", `
environment: test
breadth:
  index: SPX
  history: 8760h
oscillator:
  mode: sigmoid
`},
		{"scheduler without spec", `
environment: test
breadth:
  index: SPX
  history: 8760h
scheduler:
  enabled: true
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestWindowSetDefaultsWhenUnset(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: test
breadth:
  index: SPX
  history: 8760h
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ws, err := cfg.WindowSet()
	if err != nil {
		t.Fatalf("WindowSet: %v", err)
	}
	if got := len(ws.All()); got != 8 {
		t.Fatalf("default window count = %d, want 8", got)
	}
}
