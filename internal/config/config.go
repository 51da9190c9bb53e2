package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/pong/internal/domain"
)

const (
	DefaultPath        = "pong.yml"
	DefaultInterval    = 3 * time.Second
	DefaultTimeout     = 5 * time.Second
	DefaultPort        = 9090
	DefaultChannelSize = 1024
)

type Config struct {
	WebServer   WebServer   `yaml:"web-server"`
	Log         Log         `yaml:"log"`
	ChannelSize int         `yaml:"channel-size"` // buffer of the result channel
	TaskGroups  []TaskGroup `yaml:"task-groups"`
}

type WebServer struct {
	Bind   []string `yaml:"bind"` // addresses to listen on, all sharing Port
	Port   int      `yaml:"port"`
	Tokens []string `yaml:"tokens"` // bearer tokens; empty leaves endpoints open
}

type Log struct {
	Dir     string `yaml:"dir"`
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type TaskGroup struct {
	Interval Duration      `yaml:"interval"`
	Timeout  Duration      `yaml:"timeout"`
	Tasks    []domain.Task `yaml:"tasks"`
}

// Duration reads Go duration strings such as "500ms" or "3s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func Default() Config {
	return Config{
		WebServer: WebServer{
			Bind: []string{"127.0.0.1", "::1"},
			Port: DefaultPort,
		},
		Log: Log{
			Dir:     "logs",
			Level:   "info",
			Console: true,
		},
		ChannelSize: DefaultChannelSize,
	}
}

// Load reads the YAML settings file, applies defaults and environment
// overrides, then validates.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(content)
}

func Parse(content []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.TaskGroups {
		g := &c.TaskGroups[i]
		if g.Interval.Duration == 0 {
			g.Interval.Duration = DefaultInterval
		}
		if g.Timeout.Duration == 0 {
			g.Timeout.Duration = DefaultTimeout
		}
		for j := range g.Tasks {
			if t, err := domain.ParseTaskType(string(g.Tasks[j].Type)); err == nil {
				g.Tasks[j].Type = t
			}
		}
	}
	if c.ChannelSize <= 0 {
		c.ChannelSize = DefaultChannelSize
	}
	if len(c.WebServer.Bind) == 0 {
		c.WebServer.Bind = Default().WebServer.Bind
	}
	if c.WebServer.Port == 0 {
		c.WebServer.Port = DefaultPort
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PONG_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WebServer.Port = n
		}
	}
	if v := os.Getenv("PONG_BIND"); v != "" {
		c.WebServer.Bind = splitList(v)
	}
	if v := os.Getenv("PONG_TOKENS"); v != "" {
		c.WebServer.Tokens = splitList(v)
	}
	if v := os.Getenv("PONG_LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("PONG_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs error
	if len(c.TaskGroups) == 0 {
		errs = multierr.Append(errs, errors.New("task-groups: at least one group is required"))
	}
	for i, g := range c.TaskGroups {
		if g.Interval.Duration <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("task-groups[%d]: interval must be positive", i))
		}
		if g.Timeout.Duration <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("task-groups[%d]: timeout must be positive", i))
		}
		if len(g.Tasks) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("task-groups[%d]: no tasks configured", i))
		}
		for j, t := range g.Tasks {
			if _, err := domain.ParseTaskType(string(t.Type)); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("task-groups[%d].tasks[%d]: %w", i, j, err))
			}
			if strings.TrimSpace(t.Target) == "" {
				errs = multierr.Append(errs, fmt.Errorf("task-groups[%d].tasks[%d]: target is empty", i, j))
			}
		}
	}
	if c.WebServer.Port < 1 || c.WebServer.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("web-server.port %d out of range", c.WebServer.Port))
	}
	for _, b := range c.WebServer.Bind {
		if net.ParseIP(b) == nil && b != "localhost" {
			errs = multierr.Append(errs, fmt.Errorf("web-server.bind %q is not an IP address", b))
		}
	}
	if c.ChannelSize < 1 {
		errs = multierr.Append(errs, errors.New("channel-size must be positive"))
	}
	return errs
}

// Groups converts the settings into scheduler input.
func (c Config) Groups() []domain.TaskGroup {
	out := make([]domain.TaskGroup, 0, len(c.TaskGroups))
	for _, g := range c.TaskGroups {
		out = append(out, domain.TaskGroup{
			Interval: g.Interval.Duration,
			Timeout:  g.Timeout.Duration,
			Tasks:    append([]domain.Task(nil), g.Tasks...),
		})
	}
	return out
}

// TaskCount is the number of tasks across all groups.
func (c Config) TaskCount() int {
	n := 0
	for _, g := range c.TaskGroups {
		n += len(g.Tasks)
	}
	return n
}

// Addrs lists the listen addresses, one per bind entry.
func (c Config) Addrs() []string {
	out := make([]string, 0, len(c.WebServer.Bind))
	for _, b := range c.WebServer.Bind {
		out = append(out, net.JoinHostPort(b, strconv.Itoa(c.WebServer.Port)))
	}
	return out
}
