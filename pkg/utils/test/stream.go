package testutils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// FakeBackend is an httptest server speaking the chatbot API. Streamed
// answers are written one line per flush.
type FakeBackend struct {
	*httptest.Server

	mu sync.Mutex

	// StreamLines are written, newline terminated, by ask_stream.
	StreamLines []string

	// AskBody is returned verbatim by ask.
	AskBody string

	// Suggestions and Products bodies are returned verbatim.
	SuggestionsBody string
	ProductsBody    string

	// Status, when non-zero, is returned by every endpoint with Detail.
	Status int
	Detail string

	// Requests counts handled requests per path.
	Requests map[string]int
}

// NewFakeBackend starts a FakeBackend. Close it when done.
func NewFakeBackend() *FakeBackend {
	fb := &FakeBackend{
		AskBody:         `{"answer":"","sources":[],"response_time":0,"cached":false,"detected_language":"en"}`,
		SuggestionsBody: `{"questions":[]}`,
		ProductsBody:    `[]`,
		Requests:        make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat/ask_stream", fb.handle(fb.stream))
	mux.HandleFunc("POST /api/chat/ask", fb.handle(fb.body(func() string { return fb.AskBody })))
	mux.HandleFunc("GET /api/chat/suggestions", fb.handle(fb.body(func() string { return fb.SuggestionsBody })))
	mux.HandleFunc("GET /api/products/", fb.handle(fb.body(func() string { return fb.ProductsBody })))

	fb.Server = httptest.NewServer(mux)
	return fb
}

// Count returns how many requests hit path.
func (fb *FakeBackend) Count(path string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.Requests[path]
}

func (fb *FakeBackend) handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.Requests[r.URL.Path]++
		status, detail := fb.Status, fb.Detail
		fb.mu.Unlock()

		if status != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"detail":%q}`, detail)
			return
		}
		next(w, r)
	}
}

func (fb *FakeBackend) stream(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	for _, line := range fb.StreamLines {
		fmt.Fprintln(w, line)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func (fb *FakeBackend) body(get func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, get())
	}
}
