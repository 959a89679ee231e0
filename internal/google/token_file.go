package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when neither a token file nor environment
// credentials are available.
var ErrNoToken = errors.New("no Google OAuth token found")

// TokenFile reads and writes a JSON-encoded oauth2.Token.
type TokenFile struct {
	path string
	mu   sync.Mutex
}

// NewTokenFile returns a TokenFile at path, or at DefaultTokenPath when path is empty.
func NewTokenFile(path string) *TokenFile {
	if path == "" {
		path = DefaultTokenPath()
	}
	return &TokenFile{path: path}
}

// Path returns the file location.
func (f *TokenFile) Path() string {
	return f.path
}

// Load reads the token. A missing file yields ErrNoToken.
func (f *TokenFile) Load() (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", f.path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("invalid token file %s: no access or refresh token", f.path)
	}
	return &tok, nil
}

// Save writes tok atomically with owner-only permissions.
func (f *TokenFile) Save(tok *oauth2.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// ResolveToken returns the starting credential. Environment values override
// the corresponding fields from the token file; a missing file is not an
// error when the environment supplies a token.
func ResolveToken(file *TokenFile, accessToken, refreshToken string) (*oauth2.Token, error) {
	tok, err := file.Load()
	switch {
	case errors.Is(err, ErrNoToken):
		tok = &oauth2.Token{}
	case err != nil:
		return nil, err
	}

	if accessToken != "" {
		tok.AccessToken = accessToken
		// Expiry of an injected token is unknown.
		tok.Expiry = time.Time{}
	}
	if refreshToken != "" {
		tok.RefreshToken = refreshToken
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoToken
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	return tok, nil
}
