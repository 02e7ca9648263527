package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("NOTESTREAM_TEST_DIR", "/var/data")

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "empty path",
			path: "",
			want: "",
		},
		{
			name: "tilde prefix",
			path: "~/notes/db.sqlite",
			want: filepath.Join(home, "notes/db.sqlite"),
		},
		{
			name: "bare tilde",
			path: "~",
			want: home,
		},
		{
			name: "environment variable",
			path: "$NOTESTREAM_TEST_DIR/notes.db",
			want: "/var/data/notes.db",
		},
		{
			name: "absolute path untouched",
			path: "/tmp/notes.db",
			want: "/tmp/notes.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.path))
		})
	}
}
