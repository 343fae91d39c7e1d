package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"application-intake-go/internal/application"
	"application-intake-go/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleTablesList(w http.ResponseWriter, r *http.Request) {
	tables, err := s.book.Tables()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

// handleTable previews one table as header plus row objects keyed by column.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	limit := clampLimit(queryIntDefault(r.URL.Query(), "limit", 100), 1000)

	rows, err := s.book.Rows(table)
	if err != nil {
		if errors.Is(err, store.ErrTableNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	header, data := previewRows(rows, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"table":  table,
		"header": header,
		"total":  max(len(rows)-1, 0),
		"data":   data,
	})
}

func (s *Server) handleWorkbookDownload(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.book.Path); err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "workbook not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	serveDownload(w, s.book.Path, filepath.Base(s.book.Path))
}

func (s *Server) handleMirrorRecent(w http.ResponseWriter, r *http.Request) {
	if s.mirror == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no database mirror configured"})
		return
	}
	kind, ok := parseKindParam(r.PathValue("kind"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "kind must be job or internship"})
		return
	}
	limit := clampLimit(queryIntDefault(r.URL.Query(), "limit", 50), 500)
	recs, err := s.mirror.Recent(r.Context(), kind, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"backend": s.mirror.Backend(),
		"kind":    string(kind),
		"records": recs,
	})
}

func parseKindParam(v string) (application.Kind, bool) {
	switch application.Kind(strings.ToLower(strings.TrimSpace(v))) {
	case application.KindJob:
		return application.KindJob, true
	case application.KindInternship:
		return application.KindInternship, true
	}
	return application.KindForTable(v)
}

func previewRows(rows [][]string, limit int) ([]string, []map[string]string) {
	if len(rows) == 0 {
		return []string{}, []map[string]string{}
	}
	header := rows[0]
	data := make([]map[string]string, 0, min(limit, 64))
	for i := 1; i < len(rows) && len(data) < limit; i++ {
		rec := rows[i]
		obj := make(map[string]string, len(header))
		for j, k := range header {
			if j < len(rec) {
				obj[k] = rec[j]
			} else {
				obj[k] = ""
			}
		}
		data = append(data, obj)
	}
	return header, data
}

func queryIntDefault(q url.Values, key string, defaultValue int) int {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

func clampLimit(n, hi int) int {
	if n < 1 {
		return 1
	}
	if n > hi {
		return hi
	}
	return n
}

func serveDownload(w http.ResponseWriter, path, filename string) {
	f, err := os.Open(path)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	defer f.Close()

	w.Header().Set("content-type", xlsxContentType)
	w.Header().Set("content-disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}
