package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellsh/quell/debounce"
)

func boolPtr(b bool) *bool {
	return &b
}

func TestConfig_SetDefaults(t *testing.T) {
	tests := []struct {
		name     string
		initial  Config
		expected Config
	}{
		{
			name:    "shell default",
			initial: Config{},
			expected: Config{
				Shell: "/bin/sh",
			},
		},
		{
			name: "preserves existing shell",
			initial: Config{
				Shell: "/bin/bash",
			},
			expected: Config{
				Shell: "/bin/bash",
			},
		},
		{
			name: "rule defaults",
			initial: Config{
				Rules: []Rule{{Name: "app", Command: "make"}},
			},
			expected: Config{
				Shell: "/bin/sh",
				Rules: []Rule{{
					Name:    "app",
					Command: "make",
					Paths:   []string{"."},
					Env:     map[string]string{},
					Debounce: DebounceConfig{
						Delay:    DefaultDelay,
						Trailing: boolPtr(true),
					},
				}},
			},
		},
		{
			name: "explicit trailing false survives",
			initial: Config{
				Rules: []Rule{{
					Name:    "app",
					Command: "make",
					Debounce: DebounceConfig{
						Delay:    time.Second,
						Leading:  true,
						Trailing: boolPtr(false),
					},
				}},
			},
			expected: Config{
				Shell: "/bin/sh",
				Rules: []Rule{{
					Name:    "app",
					Command: "make",
					Paths:   []string{"."},
					Env:     map[string]string{},
					Debounce: DebounceConfig{
						Delay:    time.Second,
						Leading:  true,
						Trailing: boolPtr(false),
					},
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.initial.SetDefaults()
			assert.Equal(t, tt.expected, tt.initial)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Rule{Name: "app", Command: "make", Debounce: DebounceConfig{Delay: time.Second, Trailing: boolPtr(true)}}

	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:    "no rules",
			config:  Config{},
			wantErr: "no rules",
		},
		{
			name: "valid",
			config: Config{
				Rules: []Rule{valid},
			},
		},
		{
			name: "unnamed rule",
			config: Config{
				Rules: []Rule{{Command: "make"}},
			},
			wantErr: "without a name",
		},
		{
			name: "duplicate names",
			config: Config{
				Rules: []Rule{valid, valid},
			},
			wantErr: "duplicate rule name",
		},
		{
			name: "missing command",
			config: Config{
				Rules: []Rule{{Name: "app"}},
			},
			wantErr: "no command",
		},
		{
			name: "bad policy",
			config: Config{
				Rules: []Rule{{
					Name:    "app",
					Command: "make",
					Debounce: DebounceConfig{
						Delay:   time.Second,
						MaxWait: time.Millisecond,
					},
				}},
			},
			wantErr: `rule "app"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidatePolicyErrorUnwraps(t *testing.T) {
	cfg := Config{
		Rules: []Rule{{
			Name:    "app",
			Command: "make",
			Debounce: DebounceConfig{
				Delay:   time.Second,
				MaxWait: time.Millisecond,
			},
		}},
	}

	assert.ErrorIs(t, cfg.Validate(), debounce.ErrInvalidPolicy)
}

func TestDebounceConfig_Policy(t *testing.T) {
	d := DebounceConfig{
		Delay:    150 * time.Millisecond,
		MaxWait:  2 * time.Second,
		Leading:  true,
		Trailing: boolPtr(false),
	}

	assert.Equal(t, debounce.Policy{
		Delay:   150 * time.Millisecond,
		MaxWait: 2 * time.Second,
		Leading: true,
	}, d.Policy())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quell.yml")
	content := `shell: /bin/bash
rules:
  - name: app
    paths: ["src", "pkg"]
    ignore: ["**/dist/**"]
    command: make build
    env:
      CGO_ENABLED: "0"
    debounce:
      delay: 250ms
      max_wait: 2s
      leading: true
  - name: docs
    command: make docs
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/bin/bash", cfg.Shell)
	require.Len(t, cfg.Rules, 2)

	app := cfg.Rules[0]
	assert.Equal(t, []string{"src", "pkg"}, app.Paths)
	assert.Equal(t, []string{"**/dist/**"}, app.Ignore)
	assert.Equal(t, "make build", app.Command)
	assert.Equal(t, map[string]string{"CGO_ENABLED": "0"}, app.Env)
	assert.Equal(t, 250*time.Millisecond, app.Debounce.Delay)
	assert.Equal(t, 2*time.Second, app.Debounce.MaxWait)
	assert.True(t, app.Debounce.Leading)
	require.NotNil(t, app.Debounce.Trailing)
	assert.True(t, *app.Debounce.Trailing, "trailing defaults to true when absent")

	docs, ok := cfg.Rule("docs")
	require.True(t, ok)
	assert.Equal(t, DefaultDelay, docs.Debounce.Delay)
	assert.Equal(t, []string{"."}, docs.Paths)

	_, ok = cfg.Rule("missing")
	assert.False(t, ok)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "nope.yml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("rules: []\n"), 0644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rules")
}
