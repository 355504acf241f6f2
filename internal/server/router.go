package server

import (
	"net/http"
	"strings"
)

// Mux is the [Router] behind [CallbackServer].
//
// Routes are registered as [http.ServeMux] method patterns, so the mux itself answers 405 for a wrong
// method and 404 for unknown paths. Middleware wraps the whole mux, including those responses.
type Mux struct {
	mux   *http.ServeMux
	chain []Middleware
}

// NewMux creates a [Mux] with the given middleware.
func NewMux(middleware ...Middleware) *Mux {
	return &Mux{mux: http.NewServeMux(), chain: middleware}
}

// Use appends middleware. The first one added is the outermost.
func (m *Mux) Use(middleware ...Middleware) {
	m.chain = append(m.chain, middleware...)
}

// Handle registers handler for method and path.
func (m *Mux) Handle(method, path string, handler http.Handler) {
	m.mux.Handle(strings.ToUpper(method)+" "+path, handler)
}

// Handler registers every route of handler for GET, the method a browser redirect arrives with.
func (m *Mux) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		m.Handle(http.MethodGet, route, handler)
	}
}

func (m *Mux) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var h http.Handler = m.mux
	for i := len(m.chain) - 1; i >= 0; i-- {
		h = m.chain[i](h)
	}
	h.ServeHTTP(w, req)
}
