// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogInit(t *testing.T) {
	tests := []struct {
		name     string
		dbg      bool
		expected []string
	}{
		{"Info level drops debug", false, []string{"info message"}},
		{"Debug level", true, []string{"debug message", "info message"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, err := os.Create(filepath.Join(t.TempDir(), "bgplsd.log"))
			require.NoError(t, err)
			defer fp.Close()

			l := LogInit(fp, tt.dbg)
			l.Debug("debug message")
			l.Info("info message", zap.Uint32("asn", 65000))
			_ = l.Sync()

			_, err = fp.Seek(0, 0)
			require.NoError(t, err)

			var msgs []string
			scanner := bufio.NewScanner(fp)
			for scanner.Scan() {
				var entry map[string]any
				require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), "file output must be JSON")
				msgs = append(msgs, entry["msg"].(string))
			}
			assert.Equal(t, tt.expected, msgs)
		})
	}
}

func TestNewConsoleLogger(t *testing.T) {
	assert.False(t, NewConsoleLogger(false).Core().Enabled(zap.DebugLevel))
	assert.True(t, NewConsoleLogger(true).Core().Enabled(zap.DebugLevel))
}
