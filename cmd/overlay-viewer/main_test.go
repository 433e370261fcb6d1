package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunStartupErrors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{"invalid config", "tick_rate: 0\n", "load config"},
		{"missing library", "library: missing.yaml\n", "load library"},
		{"unknown curve", "curves: [Nope]\n", "start session"},
	}

	*muteFlag = true
	*logFlag = ""
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "settings.yaml")
			config := strings.ReplaceAll(tt.config, "missing.yaml", filepath.Join(dir, "missing.yaml"))
			if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			*configFlag = path

			err := run()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("run() error = %v, want %q", err, tt.wantErr)
			}
			if log.Writer() != os.Stderr {
				t.Error("log output redirected before the dashboard started")
			}
		})
	}
}
