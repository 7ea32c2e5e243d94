// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(Config{})

	Info().Str("component", "test").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("Expected structured field in output, got: %s", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("Expected message in output, got: %s", out)
	}
}

func TestInitLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	defer Init(Config{})

	Debug().Msg("suppressed")
	Info().Msg("also suppressed")
	Warn().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("Expected debug/info suppressed at warn level, got: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("Expected warn message emitted, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWithChildLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(Config{})

	child := With().Str("component", "rfm").Logger()
	child.Info().Msg("segmented")

	if !strings.Contains(buf.String(), `"component":"rfm"`) {
		t.Errorf("Expected child logger field, got: %s", buf.String())
	}
}
