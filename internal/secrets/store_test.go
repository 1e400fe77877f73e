package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s := &Store{Dir: filepath.Join(t.TempDir(), "carton")}

	_, err := s.Fetch("hetzner")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(" Hetzner ", "tok-123"))
	got, err := s.Fetch("hetzner")
	require.NoError(t, err)
	require.Equal(t, "tok-123", got)

	raw, err := os.ReadFile(filepath.Join(s.Dir, fileName))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "tok-123")

	info, err := os.Stat(filepath.Join(s.Dir, fileName))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Delete("hetzner"))
	_, err = s.Fetch("hetzner")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Delete("hetzner"))
}

func TestStoreRejectsEmptyInput(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	require.Error(t, s.Save("", "tok"))
	require.Error(t, s.Save("hetzner", " "))
	_, err := s.Fetch("")
	require.Error(t, err)
}

func TestSealedTokenIsBoundToProvider(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	require.NoError(t, s.Save("hetzner", "tok-1"))
	require.NoError(t, s.Save("amazon", "tok-2"))

	tf, err := s.read()
	require.NoError(t, err)
	require.Equal(t, fileVersion, tf.Version)

	// swap the sealed values between providers
	tf.Tokens["hetzner"], tf.Tokens["amazon"] = tf.Tokens["amazon"], tf.Tokens["hetzner"]
	require.NoError(t, s.update(func(f *tokenFile) error {
		*f = tf
		return nil
	}))

	_, err = s.Fetch("hetzner")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestStoreRejectsCorruptFile(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, fileName), []byte("{not json"), 0o600))

	_, err := s.Fetch("hetzner")
	require.ErrorContains(t, err, "parse")
}
