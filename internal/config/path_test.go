package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandPath(t *testing.T) {
	t.Setenv("SPENDSCOPE_TEST_DIR", "/tmp/scope")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"absolute untouched", "/var/data/scope.db", "/var/data/scope.db"},
		{"env var expanded", "$SPENDSCOPE_TEST_DIR/scope.db", "/tmp/scope/scope.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestExpandPath_Tilde(t *testing.T) {
	t.Setenv("HOME", "/home/scope")
	assert.Equal(t, "/home/scope/db", ExpandPath("~/db"))
	assert.Equal(t, "/home/scope", ExpandPath("~"))
}

func TestDefaultDBPath(t *testing.T) {
	t.Setenv("SPENDSCOPE_CONFIG_DIR", "/tmp/scope-config")
	assert.Equal(t, filepath.Join("/tmp/scope-config", "spendscope.db"), DefaultDBPath())
}
