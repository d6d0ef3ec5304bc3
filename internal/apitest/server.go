// Package apitest runs an in-memory stand-in for the to-do API so client and
// TUI tests can observe every request the client makes.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/idilsaglam/todo/internal/model"
)

// Request is one call the server received.
type Request struct {
	Method      string
	Path        string
	ContentType string
	RequestID   string
	Body        map[string]any
}

type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	items    []model.Item
	nextID   int64
	requests []Request

	listStatus int
	listBody   *string
	failStatus map[string]int
}

// New starts a server seeded with items; it is closed when the test ends.
func New(t testing.TB, seed ...model.Item) *Server {
	t.Helper()

	s := &Server{nextID: 1, failStatus: map[string]int{}}
	for _, it := range seed {
		s.items = append(s.items, it)
		if it.ID >= s.nextID {
			s.nextID = it.ID + 1
		}
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/todo_list/", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/todo_list/", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/update_item/{id:[0-9]+}/", s.handleUpdate).Methods(http.MethodPatch)
	api.HandleFunc("/delete_item/{id:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)

	s.srv = httptest.NewServer(s.record(handlers.ContentTypeHandler(r, "application/json")))
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API base, ending in "/api/".
func (s *Server) URL() string { return s.srv.URL + "/api/" }

func (s *Server) Client() *http.Client { return s.srv.Client() }

func (s *Server) Items() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Item(nil), s.items...)
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path prefix (relative to /api/).
func (s *Server) Count(method, prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, "/api/"+prefix) {
			n++
		}
	}
	return n
}

func (s *Server) SetNextID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = id
}

// FailList makes GET todo_list/ answer with status while still writing the list.
func (s *Server) FailList(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listStatus = status
}

// SetListBody replaces the GET todo_list/ body with raw.
func (s *Server) SetListBody(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listBody = &raw
}

// Fail makes every request with method answer with status and no side effects.
func (s *Server) Fail(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus[method] = status
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(b)))

		var body map[string]any
		if len(b) > 0 {
			_ = json.Unmarshal(b, &body)
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			RequestID:   r.Header.Get("X-Request-ID"),
			Body:        body,
		})
		status := s.failStatus[r.Method]
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := http.StatusOK
	if s.listStatus != 0 {
		status = s.listStatus
	}
	raw := s.listBody
	items := append([]model.Item{}, s.items...)
	s.mu.Unlock()

	if raw != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, *raw)
		return
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	writeJSON(w, status, items)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"content": "This field may not be blank."})
		return
	}

	s.mu.Lock()
	it := model.Item{ID: s.nextID, Content: in.Content}
	s.nextID++
	s.items = append(s.items, it)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	var in struct {
		Completed any `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	completed, ok := parseBool(in.Completed)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"completed": "Must be a valid boolean."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Completed = completed
			writeJSON(w, http.StatusOK, s.items[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

// parseBool accepts what the server's serializer accepts: JSON booleans and
// the strings "True"/"False" (any case).
func parseBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(x) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
