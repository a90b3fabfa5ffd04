package logutil

import (
	"testing"
)

func TestRedactKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "********"},
		{"short", "********"},
		{"12345678", "********"},
		{"sk-abcdefghijklmnop", "sk-a...mnop"},
	}
	for _, tt := range tests {
		if got := RedactKey(tt.in); got != tt.want {
			t.Errorf("RedactKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArchiveName(t *testing.T) {
	if got := archiveName("logs/ocr_qcm_debug.log", 2); got != "logs/ocr_qcm_debug.log.2" {
		t.Errorf("archiveName = %q", got)
	}
}
