package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/hamed0406/pong/internal/domain"
)

const sample = `
web-server:
  bind: ["127.0.0.1"]
  port: 9100
log:
  level: debug
task-groups:
  - interval: 1s
    timeout: 200ms
    tasks:
      - task-type: icmp
        target: 127.0.0.1
      - task-type: TCP
        target: "localhost:22"
  - tasks:
      - task-type: http
        target: "GET:http://127.0.0.1:8080/"
`

func TestLoad_ParsesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pong.yml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WebServer.Port != 9100 || cfg.Log.Level != "debug" || cfg.Log.Dir != "logs" {
		t.Fatalf("unexpected settings: %+v", cfg)
	}
	if cfg.ChannelSize != DefaultChannelSize {
		t.Fatalf("channel size default not applied: %d", cfg.ChannelSize)
	}

	groups := cfg.Groups()
	if len(groups) != 2 {
		t.Fatalf("want 2 groups, got %d", len(groups))
	}
	if groups[0].Interval != time.Second || groups[0].Timeout != 200*time.Millisecond {
		t.Fatalf("group 0 timing: %+v", groups[0])
	}
	if groups[1].Interval != DefaultInterval || groups[1].Timeout != DefaultTimeout {
		t.Fatalf("group 1 defaults: %+v", groups[1])
	}
	if groups[0].Tasks[1].Type != domain.TaskTCP {
		t.Fatalf("task type not normalised: %+v", groups[0].Tasks[1])
	}
	if cfg.TaskCount() != 3 {
		t.Fatalf("TaskCount=%d", cfg.TaskCount())
	}
	if got := cfg.Addrs(); len(got) != 1 || got[0] != "127.0.0.1:9100" {
		t.Fatalf("Addrs=%v", got)
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("PONG_PORT", "9999")
	t.Setenv("PONG_BIND", "0.0.0.0, ::")
	t.Setenv("PONG_TOKENS", "tok_a,tok_b")
	t.Setenv("PONG_LOG_DIR", "./_testlogs")

	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.WebServer.Port != 9999 || cfg.Log.Dir != "./_testlogs" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if len(cfg.WebServer.Bind) != 2 || cfg.WebServer.Bind[1] != "::" {
		t.Fatalf("bind list wrong: %v", cfg.WebServer.Bind)
	}
	if got := cfg.Addrs(); got[1] != "[::]:9999" {
		t.Fatalf("ipv6 addr not bracketed: %v", got)
	}
	if len(cfg.WebServer.Tokens) != 2 {
		t.Fatalf("tokens wrong: %v", cfg.WebServer.Tokens)
	}
}

func TestParse_ReportsEveryProblem(t *testing.T) {
	bad := `
web-server: {port: 70000}
task-groups:
  - interval: -1s
    tasks:
      - {task-type: udp, target: "x:1"}
      - {task-type: tcp, target: ""}
  - interval: 1s
`
	_, err := Parse([]byte(bad))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if n := len(multierr.Errors(err)); n != 5 {
		t.Fatalf("want 5 problems, got %d: %v", n, err)
	}
	for _, want := range []string{"interval", "udp", "target is empty", "no tasks", "port"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

func TestParse_RejectsEmptyAndBadDuration(t *testing.T) {
	if _, err := Parse([]byte("task-groups: []")); err == nil {
		t.Fatalf("want error for no groups")
	}
	if _, err := Parse([]byte("task-groups:\n  - interval: soon\n    tasks: [{task-type: icmp, target: a}]\n")); err == nil {
		t.Fatalf("want error for bad duration")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("want error for missing file")
	}
}
