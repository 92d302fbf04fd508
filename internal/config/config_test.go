// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bgplsd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadConfigFile(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected Config
		err      bool
	}{
		{
			name: "Full configuration",
			content: `global:
  log:
    path: /var/log/bgpls/
    name: bgplsd.log
    debug: true
  gobgp:
    address: 127.0.0.1
    port: "50052"
  ted:
    enable: true
    interval: 30
`,
			expected: Config{Global: Global{
				Log:   Log{Path: "/var/log/bgpls/", Name: "bgplsd.log", Debug: true},
				Gobgp: Gobgp{Address: "127.0.0.1", Port: "50052"},
				Ted:   Ted{Enable: true, Interval: 30},
			}},
		},
		{
			name: "Defaults",
			content: `global:
  log:
    path: /tmp/
  gobgp:
    address: 192.0.2.1
  ted:
    enable: true
`,
			expected: Config{Global: Global{
				Log:   Log{Path: "/tmp/", Name: defaultLogName},
				Gobgp: Gobgp{Address: "192.0.2.1", Port: defaultGobgpPort},
				Ted:   Ted{Enable: true, Interval: defaultTedInterval},
			}},
		},
		{
			name: "TED without gobgp address",
			content: `global:
  ted:
    enable: true
`,
			err: true,
		},
		{
			name: "Negative interval",
			content: `global:
  gobgp:
    address: 192.0.2.1
  ted:
    interval: -1
`,
			err: true,
		},
		{
			name:    "Broken YAML",
			content: "global: [",
			err:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ReadConfigFile(writeConfig(t, tt.content))
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}
}

func TestReadConfigFile_Missing(t *testing.T) {
	_, err := ReadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
