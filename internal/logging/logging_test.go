package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "anima.log")
	l, closer, err := New(path)
	require.NoError(t, err)

	l.WithField("pet", "abc").Warn("settings not saved")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "settings not saved"))
	require.True(t, strings.Contains(string(data), "pet=abc"))
}

func TestSilenceDiscardsTerminalOutput(t *testing.T) {
	l, _, err := New(filepath.Join(t.TempDir(), "anima.log"))
	require.NoError(t, err)
	out := l.Out
	Silence(l)
	require.Equal(t, out, l.Out)

	l.SetOutput(os.Stderr)
	Silence(l)
	require.NotEqual(t, os.Stderr, l.Out)
}
