// Package google provides the OAuth2 configuration and on-disk token storage
// used to authenticate against the Google Drive API.
//
// Tokens are stored as JSON-encoded oauth2.Token values, by default under
// the user cache directory. The authorization-code exchange is not handled
// here; a refresh token obtained elsewhere is placed in the token file or
// passed through the environment.
package google
