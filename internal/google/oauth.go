package google

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// appName names the cache subdirectory holding the token file.
const appName = "drivepath"

// OAuthConfig returns the OAuth2 configuration for the Drive API.
func OAuthConfig(clientID, clientSecret string, readOnly bool) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       Scopes(readOnly),
	}
}

// DefaultTokenPath returns the default location of the token file.
func DefaultTokenPath() string {
	return filepath.Join(userCacheDir(), appName, "google.token")
}

// MissingCredentialsMessage explains how to provide credentials.
func MissingCredentialsMessage(tokenPath string) string {
	var b strings.Builder
	b.WriteString("No usable Google OAuth credentials were found.\n\n")
	b.WriteString("Provide a refresh token and client credentials in one of these ways:\n")
	fmt.Fprintf(&b, "  - a JSON token file at %s (or --token-file / GOOGLE_TOKEN_FILE)\n", tokenPath)
	b.WriteString("  - GOOGLE_REFRESH_TOKEN, optionally with GOOGLE_ACCESS_TOKEN\n\n")
	b.WriteString("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required to refresh the access token.\n")
	return b.String()
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"LOCALAPPDATA", "TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
