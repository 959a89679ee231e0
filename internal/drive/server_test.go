package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
)

// fakeDrive serves the subset of the Drive v3 REST surface used by Client,
// plus an OAuth token endpoint at /token.
type fakeDrive struct {
	t *testing.T

	mu           sync.Mutex
	files        map[string]*drive.File
	content      map[string]string
	nextID       int
	tokenCalls   int
	apiCalls     int
	authHeaders  []string
	lastQuery    map[string]string
	unauthorized int  // number of upcoming API calls answered with 401
	omitExpiry   bool // token endpoint omits expires_in
	tokenStatus  int  // non-zero makes the token endpoint fail
}

func newFakeDrive(t *testing.T) (*fakeDrive, *httptest.Server) {
	t.Helper()

	f := &fakeDrive{
		t:         t,
		files:     map[string]*drive.File{},
		content:   map[string]string{},
		lastQuery: map[string]string{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeDrive) counts() (tokenCalls, apiCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenCalls, f.apiCalls
}

func (f *fakeDrive) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.authHeaders) == 0 {
		return ""
	}
	return f.authHeaders[len(f.authHeaders)-1]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    status,
			"message": message,
		},
	})
}

func (f *fakeDrive) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/token" {
		f.tokenCalls++
		if f.tokenStatus != 0 {
			writeJSON(w, f.tokenStatus, map[string]string{"error": "invalid_grant"})
			return
		}
		resp := map[string]interface{}{
			"access_token": fmt.Sprintf("fresh-token-%d", f.tokenCalls),
			"token_type":   "Bearer",
		}
		if !f.omitExpiry {
			resp["expires_in"] = 3600
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	f.apiCalls++
	auth := r.Header.Get("Authorization")
	f.authHeaders = append(f.authHeaders, auth)
	for k := range r.URL.Query() {
		f.lastQuery[k] = r.URL.Query().Get(k)
	}

	if f.unauthorized > 0 {
		f.unauthorized--
		writeAPIError(w, http.StatusUnauthorized, "Invalid Credentials")
		return
	}
	if !strings.HasPrefix(auth, "Bearer fresh-") && !strings.HasPrefix(auth, "Bearer valid-") {
		writeAPIError(w, http.StatusUnauthorized, "Invalid Credentials")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) == 0 || parts[0] != "files" {
		writeAPIError(w, http.StatusNotFound, "unknown path "+r.URL.Path)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		list := &drive.FileList{NextPageToken: "next-page"}
		for _, file := range f.files {
			list.Files = append(list.Files, file)
		}
		writeJSON(w, http.StatusOK, list)

	case len(parts) == 1 && r.Method == http.MethodPost:
		var file drive.File
		if err := json.NewDecoder(r.Body).Decode(&file); err != nil {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.nextID++
		file.Id = fmt.Sprintf("new-%d", f.nextID)
		f.files[file.Id] = &file
		writeJSON(w, http.StatusOK, &file)

	case len(parts) == 2:
		file, ok := f.files[parts[1]]
		if !ok {
			writeAPIError(w, http.StatusNotFound, "File not found: "+parts[1])
			return
		}
		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("alt") == "media" {
				_, _ = io.WriteString(w, f.content[file.Id])
				return
			}
			writeJSON(w, http.StatusOK, file)
		case http.MethodPatch:
			var patch drive.File
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeAPIError(w, http.StatusBadRequest, err.Error())
				return
			}
			if patch.Name != "" {
				file.Name = patch.Name
			}
			if add := r.URL.Query().Get("addParents"); add != "" {
				file.Parents = append(file.Parents, strings.Split(add, ",")...)
			}
			if remove := r.URL.Query().Get("removeParents"); remove != "" {
				kept := file.Parents[:0]
				for _, p := range file.Parents {
					if !strings.Contains(","+remove+",", ","+p+",") {
						kept = append(kept, p)
					}
				}
				file.Parents = kept
			}
			writeJSON(w, http.StatusOK, file)
		case http.MethodDelete:
			delete(f.files, file.Id)
			w.WriteHeader(http.StatusNoContent)
		default:
			writeAPIError(w, http.StatusMethodNotAllowed, r.Method)
		}

	case len(parts) == 3 && parts[2] == "export":
		if _, ok := f.files[parts[1]]; !ok {
			writeAPIError(w, http.StatusNotFound, "File not found: "+parts[1])
			return
		}
		_, _ = io.WriteString(w, "exported as "+r.URL.Query().Get("mimeType"))

	default:
		writeAPIError(w, http.StatusNotFound, "unknown path "+r.URL.Path)
	}
}

func testOAuthConfig(srv *httptest.Server) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func newTestTokens(srv *httptest.Server, token *oauth2.Token) *TokenManager {
	return NewTokenManager(TokenManagerConfig{
		OAuth:      testOAuthConfig(srv),
		Token:      token,
		HTTPClient: srv.Client(),
	})
}

func newTestClient(t *testing.T, srv *httptest.Server, tokens *TokenManager) *Client {
	t.Helper()

	client, err := NewClient(context.Background(), tokens, ClientConfig{
		Endpoint:  srv.URL + "/",
		Transport: srv.Client().Transport,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func validToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "valid-token",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}
}
