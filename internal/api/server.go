package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"application-intake-go/internal/config"
	"application-intake-go/internal/intake"
	"application-intake-go/internal/logger"
	"application-intake-go/internal/store"

	"github.com/rs/cors"
)

type Server struct {
	intake *intake.Service
	book   *store.XlsxStore
	mirror store.Mirror
	mux    *http.ServeMux

	maxUploadBytes int64
	origins        []string
	adminToken     string
}

// NewServer wires the HTTP routes. mirror may be nil when no database
// backend is configured.
func NewServer(svc *intake.Service, book *store.XlsxStore, mirror store.Mirror) *Server {
	maxMB := config.AppConfig.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 20
	}
	origins := config.AppConfig.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &Server{
		intake:         svc,
		book:           book,
		mirror:         mirror,
		mux:            http.NewServeMux(),
		maxUploadBytes: int64(maxMB) << 20,
		origins:        origins,
		adminToken:     config.AppConfig.AdminToken,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /api/health", s.handleAPIHealth)
	s.mux.HandleFunc("POST /api/submit", s.handleSubmit)
	s.mux.HandleFunc("GET /api/submissions/{id}", s.handleReceipt)

	if s.adminToken == "" {
		logger.Info("admin routes disabled, ADMIN_TOKEN is empty")
		return
	}
	s.mux.Handle("GET /api/tables", s.requireAdmin(s.handleTablesList))
	s.mux.Handle("GET /api/tables/{table}", s.requireAdmin(s.handleTable))
	s.mux.Handle("GET /api/workbook", s.requireAdmin(s.handleWorkbookDownload))
	s.mux.Handle("GET /api/mirror/{kind}", s.requireAdmin(s.handleMirrorRecent))
	s.mux.Handle("GET /api/logs", s.requireAdmin(s.handleLogs))
	s.mux.Handle("GET /api/ws/logs", s.requireAdmin(s.handleWSLogs))
}

// requireAdmin accepts the token as "Authorization: Bearer <token>" or in
// the X-Admin-Token header.
func (s *Server) requireAdmin(next http.HandlerFunc) http.Handler {
	want := []byte(s.adminToken)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("X-Admin-Token")
		if auth := r.Header.Get("Authorization"); got == "" && len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
			got = strings.TrimSpace(auth[7:])
		}
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"ok":       true,
		"workbook": s.book.Path,
		"mirror":   "",
		"time":     nowUnix(),
	}
	if s.mirror != nil {
		out["mirror"] = s.mirror.Backend()
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func nowUnix() int64 {
	return time.Now().Unix()
}
