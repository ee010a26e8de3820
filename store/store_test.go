package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStore_SaveGetRemove(t *testing.T) {
	t.Parallel()

	s := New(filepath.Join(t.TempDir(), "nested", "output"))
	p, err := s.Save("a.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "a.png"), p)

	got, err := s.Get("a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), got)

	_, err = s.Save("a.png", []byte("v2"))
	require.NoError(t, err)
	got, err = s.Get("a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Remove("a.png"))
	_, err = s.Get("a.png")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Remove("a.png"), ErrNotFound)
}

func TestStore_InvalidNames(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	for _, name := range []string{"", ".", "..", "../x.png", "a/b.png", `a\b.png`, "x..png"} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Save(name, []byte("x"))
			assert.ErrorIs(t, err, ErrInvalidName)
			_, err = s.Get(name)
			assert.ErrorIs(t, err, ErrInvalidName)
			assert.ErrorIs(t, s.Remove(name), ErrInvalidName)
		})
	}
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	s := New(filepath.Join(t.TempDir(), "missing"))
	infos, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, infos)

	for _, name := range []string{"b.png", "a.png"} {
		_, err := s.Save(name, []byte(name))
		require.NoError(t, err)
	}
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "sub"), 0o755))

	infos, err = s.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a.png", infos[0].Name)
	assert.Equal(t, int64(5), infos[0].Size)
	assert.Equal(t, "b.png", infos[1].Name)
}

func TestNewName(t *testing.T) {
	t.Parallel()

	a, b := NewName("png"), NewName(".png")
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.True(t, strings.HasSuffix(b, ".png"))
	assert.NotEqual(t, a, b)
	assert.Len(t, strings.TrimSuffix(a, ".png"), 27)
}

func TestJanitor_Sweep(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	now := time.Now()
	for name, age := range map[string]time.Duration{"old.png": 48 * time.Hour, "new.png": time.Hour} {
		p, err := s.Save(name, []byte(name))
		require.NoError(t, err)
		mod := now.Add(-age)
		require.NoError(t, os.Chtimes(p, mod, mod))
	}

	j := NewJanitor(s, 24*time.Hour, zaptest.NewLogger(t))
	removed, err := j.Sweep(now)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.png"}, removed)

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "new.png", infos[0].Name)
}

func TestJanitor_Start(t *testing.T) {
	t.Parallel()

	j := NewJanitor(New(t.TempDir()), time.Hour, nil)
	assert.Error(t, j.Start("not a schedule"))

	require.NoError(t, j.Start("@every 1h"))
	j.Stop(t.Context())
}
