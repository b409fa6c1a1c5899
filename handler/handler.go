// Package handler provides the HTTP handlers for the contacts server.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stevemurr/simple-contacts/store"
)

// Handler holds the server dependencies and registers routes.
type Handler struct {
	store store.Store
	mux   *http.ServeMux
}

// New creates a Handler and wires up all routes.
func New(s store.Store) *Handler {
	h := &Handler{store: s, mux: http.NewServeMux()}
	h.routes()
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	// Health / status
	h.mux.HandleFunc("GET /", h.root)
	h.mux.HandleFunc("GET /health", h.health)

	h.mux.HandleFunc("GET /contacts", h.listContacts)
	h.mux.HandleFunc("POST /contacts", h.addContact)
	h.mux.HandleFunc("GET /contacts/search", h.searchContacts)
	h.mux.HandleFunc("DELETE /contacts", h.deleteContactByQuery)
	h.mux.HandleFunc("DELETE /contacts/{name}", h.deleteContact)
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// ---------- status endpoints ----------

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	// Only match exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Simple Contacts",
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ---------- contacts ----------

func (h *Handler) listContacts(w http.ResponseWriter, _ *http.Request) {
	recs, err := h.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) addContact(w http.ResponseWriter, r *http.Request) {
	var in store.Record
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	rec, err := h.store.Add(in.Name, in.Phone, in.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) searchContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("name") {
		writeError(w, http.StatusBadRequest, "missing query parameter: name")
		return
	}
	found, err := h.store.Search(q.Get("name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if found == nil {
		found = []store.Record{}
	}
	writeJSON(w, http.StatusOK, found)
}

func (h *Handler) deleteContact(w http.ResponseWriter, r *http.Request) {
	h.deleteNamed(w, r.PathValue("name"))
}

// deleteContactByQuery takes the name from ?name=, which can address an
// empty name that no path segment can.
func (h *Handler) deleteContactByQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("name") {
		writeError(w, http.StatusBadRequest, "missing query parameter: name")
		return
	}
	h.deleteNamed(w, q.Get("name"))
}

func (h *Handler) deleteNamed(w http.ResponseWriter, name string) {
	n, err := h.store.Delete(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "name": name, "removed": n})
}
