package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/quellsh/quell/debounce"
)

const DefaultDelay = 200 * time.Millisecond

// Config is the parsed quell.yml.
type Config struct {
	Shell string `koanf:"shell"`
	Rules []Rule `koanf:"rules"`
}

// Rule binds a set of watched paths to a command, with its own debounce
// policy.
type Rule struct {
	Name     string            `koanf:"name"`
	Paths    []string          `koanf:"paths"`
	Ignore   []string          `koanf:"ignore"`
	Command  string            `koanf:"command"`
	Env      map[string]string `koanf:"env"`
	Debounce DebounceConfig    `koanf:"debounce"`
}

// DebounceConfig is the per-rule policy surface. Trailing is a pointer
// so an absent key defaults to true rather than false.
type DebounceConfig struct {
	Delay    time.Duration `koanf:"delay"`
	MaxWait  time.Duration `koanf:"max_wait"`
	Leading  bool          `koanf:"leading"`
	Trailing *bool         `koanf:"trailing"`
}

func (c *Config) SetDefaults() {
	if c.Shell == "" {
		c.Shell = "/bin/sh"
	}
	for i := range c.Rules {
		c.Rules[i].SetDefaults()
	}
}

func (r *Rule) SetDefaults() {
	if len(r.Paths) == 0 {
		r.Paths = []string{"."}
	}
	if r.Env == nil {
		r.Env = make(map[string]string)
	}
	if r.Debounce.Delay == 0 {
		r.Debounce.Delay = DefaultDelay
	}
	if r.Debounce.Trailing == nil {
		trailing := true
		r.Debounce.Trailing = &trailing
	}
}

// Policy converts the config surface into an engine policy. Call after
// SetDefaults.
func (d DebounceConfig) Policy() debounce.Policy {
	p := debounce.Policy{
		Delay:   d.Delay,
		Leading: d.Leading,
		MaxWait: d.MaxWait,
	}
	if d.Trailing != nil {
		p.Trailing = *d.Trailing
	}
	return p
}

// Validate fails fast on malformed rules so policy errors surface at
// load time, never at the first file change.
func (c *Config) Validate() error {
	if len(c.Rules) == 0 {
		return errors.New("no rules defined")
	}

	seen := make(map[string]struct{}, len(c.Rules))
	for _, rule := range c.Rules {
		if rule.Name == "" {
			return errors.New("rule without a name")
		}
		if _, dup := seen[rule.Name]; dup {
			return errors.Errorf("duplicate rule name %q", rule.Name)
		}
		seen[rule.Name] = struct{}{}

		if rule.Command == "" {
			return errors.Errorf("rule %q has no command", rule.Name)
		}
		if err := rule.Debounce.Policy().Validate(); err != nil {
			return errors.Wrapf(err, "rule %q", rule.Name)
		}
	}
	return nil
}

// Rule returns the named rule.
func (c *Config) Rule(name string) (*Rule, bool) {
	for i := range c.Rules {
		if c.Rules[i].Name == name {
			return &c.Rules[i], true
		}
	}
	return nil, false
}
