// Package secrets keeps provider API tokens out of the config file. Tokens
// live in one 0600 JSON file, sealed with AES-GCM under a key derived from
// the OS and user name. This is obfuscation, not a keychain.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	fileName    = "tokens.json"
	fileVersion = 1
)

var ErrNotFound = errors.New("token not found")

type tokenFile struct {
	Version int               `json:"version"`
	Tokens  map[string]string `json:"tokens"` // provider -> base64(nonce|ciphertext)
}

// Store keeps provider tokens in one file under Dir.
type Store struct {
	Dir string
}

// Default returns the store under the user config dir.
func Default() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &Store{Dir: filepath.Join(dir, "carton")}, nil
}

func (s *Store) Save(provider, token string) error {
	provider, err := providerKey(provider)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token required")
	}
	return s.update(func(tf *tokenFile) error {
		sealed, err := seal(provider, token)
		if err != nil {
			return fmt.Errorf("seal %s token: %w", provider, err)
		}
		tf.Tokens[provider] = sealed
		return nil
	})
}

func (s *Store) Fetch(provider string) (string, error) {
	provider, err := providerKey(provider)
	if err != nil {
		return "", err
	}
	tf, err := s.read()
	if err != nil {
		return "", err
	}
	sealed, ok := tf.Tokens[provider]
	if !ok {
		return "", ErrNotFound
	}
	token, err := unseal(provider, sealed)
	if err != nil {
		return "", fmt.Errorf("open %s token: %w", provider, err)
	}
	return token, nil
}

// Delete removes the token for provider. A missing token is not an error.
func (s *Store) Delete(provider string) error {
	provider, err := providerKey(provider)
	if err != nil {
		return err
	}
	return s.update(func(tf *tokenFile) error {
		delete(tf.Tokens, provider)
		return nil
	})
}

func (s *Store) path() (string, error) {
	if s.Dir == "" {
		return "", fmt.Errorf("secrets: dir not configured")
	}
	return filepath.Join(s.Dir, fileName), nil
}

func (s *Store) read() (tokenFile, error) {
	tf := tokenFile{Version: fileVersion, Tokens: map[string]string{}}
	path, err := s.path()
	if err != nil {
		return tf, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return tf, nil
	}
	if err != nil {
		return tf, err
	}
	if err := json.Unmarshal(data, &tf); err != nil {
		return tf, fmt.Errorf("parse %s: %w", path, err)
	}
	if tf.Tokens == nil {
		tf.Tokens = map[string]string{}
	}
	return tf, nil
}

// update rewrites the file through a temp file in the same directory.
func (s *Store) update(fn func(*tokenFile) error) error {
	tf, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(&tf); err != nil {
		return err
	}
	tf.Version = fileVersion
	path, _ := s.path()
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, fileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func providerKey(p string) (string, error) {
	p = strings.TrimSpace(strings.ToLower(p))
	if p == "" {
		return "", fmt.Errorf("provider required")
	}
	return p, nil
}

func aead() (cipher.AEAD, error) {
	sum := sha256.Sum256(fmt.Appendf(nil, "carton-%s-%s", runtime.GOOS, os.Getenv("USER")))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal binds the provider name as additional data, so a sealed token only
// opens under the provider it was saved for.
func seal(provider, token string) (string, error) {
	gcm, err := aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := gcm.Seal(nonce, nonce, []byte(token), []byte(provider))
	return base64.StdEncoding.EncodeToString(out), nil
}

func unseal(provider, sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	gcm, err := aead()
	if err != nil {
		return "", err
	}
	n := gcm.NonceSize()
	if len(raw) < n {
		return "", errors.New("sealed token too short")
	}
	plain, err := gcm.Open(nil, raw[:n], raw[n:], []byte(provider))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
