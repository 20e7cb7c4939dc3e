// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_SimpleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.LevelInfo, &buf, FormatSimple)

	l.Info("search degraded", "source", "banxico")
	l.Debug("hidden")

	assert.Equal(t, "INFO search degraded source=banxico\n", buf.String())
}

func TestNew_VerboseFormatWithGroup(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.LevelDebug, &buf, FormatVerbose).WithGroup("agent").With("provider", "groq")

	l.Debug("step")

	out := buf.String()
	assert.Contains(t, out, "DEBUG step agent.provider=groq")
	assert.Regexp(t, `^\d{4}/\d{2}/\d{2} `, out)
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.LevelWarn, &buf, FormatJSON)

	l.Info("dropped")
	l.Warn("kept", "iteration", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, float64(3), rec["iteration"])
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat(""))
	assert.True(t, ValidFormat(FormatJSON))
	assert.False(t, ValidFormat("xml"))
}

func TestOpenLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "econonexo.log")

	file, cleanup, err := OpenLogFile(path)
	require.NoError(t, err)
	defer cleanup()

	Init(slog.LevelInfo, file, FormatSimple)
	GetLogger().Info("written")
	assert.FileExists(t, path)
}
