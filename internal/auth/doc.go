// Package auth owns the token lifecycle: the on-disk [TokenCache] and the [Manager] that decides, once per run,
// whether the cached token can be used ([CachedValid]) or the authorization code flow must run ([NeedsAuthorization]).
//
// In paste mode the user opens the printed URL, approves access and pastes the redirect URL back into the
// terminal. In callback mode a temporary server from the server package receives the redirect instead.
//
// Either way the token is refreshed when it carries a refresh token and the result is written back to the cache.
package auth
