// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		MaxConcurrentPDFs: 10,
		MaxWorkersPerPDF:  2,
		PageTimeout:       5 * time.Second,
		ParsingMode:       BestEffort,
		WordMargin:        0.1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		shouldErr bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			shouldErr: false,
		},
		{
			name:      "invalid MaxConcurrentPDFs (too low)",
			mutate:    func(c *Config) { c.MaxConcurrentPDFs = 0 },
			shouldErr: true,
		},
		{
			name:      "invalid MaxConcurrentPDFs (too high)",
			mutate:    func(c *Config) { c.MaxConcurrentPDFs = 11 },
			shouldErr: true,
		},
		{
			name:      "invalid MaxWorkersPerPDF (too low)",
			mutate:    func(c *Config) { c.MaxWorkersPerPDF = 0 },
			shouldErr: true,
		},
		{
			name:      "missing PageTimeout",
			mutate:    func(c *Config) { c.PageTimeout = 0 },
			shouldErr: true,
		},
		{
			name:      "invalid ParsingMode",
			mutate:    func(c *Config) { c.ParsingMode = "invalid-mode" },
			shouldErr: true,
		},
		{
			name:      "strict mode",
			mutate:    func(c *Config) { c.ParsingMode = Strict },
			shouldErr: false,
		},
		{
			name:      "zero WordMargin",
			mutate:    func(c *Config) { c.WordMargin = 0 },
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err, "expected validation error")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}

	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, NewDefaultConfig().Validate())
	})
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    func(c *Config)
		wantErr bool
	}{
		{
			name: "empty document keeps defaults",
			yaml: "",
			want: func(c *Config) {},
		},
		{
			name: "overrides",
			yaml: `
max_concurrent_pdfs: 2
max_workers_per_pdf: 4
page_timeout: 1m30s
parsing_mode: strict
group_text: false
word_margin: 0.25
debug: true
`,
			want: func(c *Config) {
				c.MaxConcurrentPDFs = 2
				c.MaxWorkersPerPDF = 4
				c.PageTimeout = 90 * time.Second
				c.ParsingMode = Strict
				c.GroupText = false
				c.WordMargin = 0.25
				c.DebugOn = true
			},
		},
		{
			name:    "bad duration",
			yaml:    "page_timeout: soon\n",
			wantErr: true,
		},
		{
			name:    "out of range",
			yaml:    "max_workers_per_pdf: 50\n",
			wantErr: true,
		},
		{
			name:    "unknown parsing mode",
			yaml:    "parsing_mode: lenient\n",
			wantErr: true,
		},
		{
			name:    "wrong type",
			yaml:    "max_workers_per_pdf: [1, 2]\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			want := NewDefaultConfig()
			tt.want(want)
			assert.Equal(t, want.MaxConcurrentPDFs, cfg.MaxConcurrentPDFs)
			assert.Equal(t, want.MaxWorkersPerPDF, cfg.MaxWorkersPerPDF)
			assert.Equal(t, want.PageTimeout, cfg.PageTimeout)
			assert.Equal(t, want.ParsingMode, cfg.ParsingMode)
			assert.Equal(t, want.GroupText, cfg.GroupText)
			assert.Equal(t, want.WordMargin, cfg.WordMargin)
			assert.Equal(t, want.DebugOn, cfg.DebugOn)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parsing_mode: strict\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Strict, cfg.ParsingMode)
	assert.Equal(t, 30*time.Second, cfg.PageTimeout)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_LayoutOptions(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.GroupText = false
	cfg.WordMargin = 0.3
	opts := cfg.LayoutOptions()
	assert.False(t, opts.GroupText)
	assert.Equal(t, 0.3, opts.WordMargin)
	assert.Nil(t, opts.Substitute)
}
