package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

const (
	mapsDir   = "../../assets/maps"
	sheetsDir = "../../assets/sheets"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  []string
	}{
		{"shipped maps", []string{"maps", mapsDir}, 0, []string{`"Town Square" OK`, "All 2 maps valid"}},
		{"shipped sheets", []string{"sheets", sheetsDir}, 0, []string{"hero (32x48)", "hook onCharacterWalk", "wave", "3 sheets loaded"}},
		{"anchor from sheet", []string{"geometry", sheetsDir, "villager"}, 0, []string{"anchor  (0.5, 1)", "offset  (-16, -32)", "tiles   1x1"}},
		{"anchor from hitbox", []string{"geometry", sheetsDir, "hero", "16", "16"}, 0, []string{"anchor  (0.25, ", "offset  (-8, "}},
		{"no args", nil, 1, nil},
		{"unknown command", []string{"viz"}, 1, nil},
		{"missing maps dir", []string{"maps", "does-not-exist"}, 1, nil},
		{"unknown graphic", []string{"geometry", sheetsDir, "dragon"}, 1, nil},
		{"bad hitbox", []string{"geometry", sheetsDir, "hero", "wide", "16"}, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Fatalf("exit %d, want %d\nstdout: %s\nstderr: %s", code, tt.wantCode, stdout.String(), stderr.String())
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("output missing %q:\n%s", want, stdout.String())
				}
			}
		})
	}
}

func TestSchemaIsJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"schema"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	var doc map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if !strings.Contains(stdout.String(), `"ownerId"`) {
		t.Error("schema does not describe entity fields")
	}
}
