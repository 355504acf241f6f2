// Package server provides the temporary HTTP server used by the callback authorization mode.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] runs in the order it was added.
// [Mux] registers routes as [http.ServeMux] method patterns and wraps the whole mux in middleware.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the redirect query with [ParseCallbackQuery], exchanges the code through an [Exchanger]
// and sends the result through a channel. It only processes one callback.
//
// [ParseCallbackQuery] is also used for the paste mode, where the user copies the redirect URL into the terminal.
//
// # Callback Server
//
// [CallbackServer] binds the configured address (127.0.0.1:8888 by default), waits for one redirect
// and shuts down.
package server
