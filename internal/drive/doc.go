// Package drive is the authenticated request layer over the Google Drive v3
// REST API.
//
// It has two parts:
//
//   - TokenManager owns the bearer credential as an explicit state machine
//     (StateValid, StateStale, StateUnrefreshable). A credential whose expiry
//     is unknown or within RefreshThreshold is stale and is refreshed before
//     the next call. Missing refresh tokens or client credentials make it
//     unrefreshable, after which every call fails immediately.
//   - Client issues LIST, GET, CREATE, UPDATE, DELETE, DOWNLOAD and EXPORT
//     calls. A 401 response triggers exactly one refresh-and-retry cycle.
//
// Failures are typed: *AuthError when no usable credential could be obtained
// and *RemoteError (status code and body) when the remote rejected the call.
//
// Example usage:
//
//	tokens := drive.NewTokenManager(drive.TokenManagerConfig{
//	    OAuth: oauthConfig,
//	    Token: &oauth2.Token{RefreshToken: refreshToken},
//	})
//	client, err := drive.NewClient(ctx, tokens, drive.ClientConfig{})
//	if err != nil {
//	    return err
//	}
//	obj, err := client.Get(ctx, drive.RootID)
package drive
