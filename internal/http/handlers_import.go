package http

import (
	"io"
	"net/http"

	"gofinances/internal/log"
	"gofinances/internal/upload"
)

// maxImportMemory bounds the in-memory part of a multipart selection.
const maxImportMemory = 32 << 20 // 32MB

type importSelection struct {
	Entries   []upload.Entry     `json:"entries"`
	Rejected  []upload.Rejection `json:"rejected,omitempty"`
	Submitted int                `json:"submitted,omitempty"`
}

// handleImportList returns every entry still in the queue.
func (s *Server) handleImportList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, importSelection{Entries: s.queue.Entries()})
}

// handleImportSelect receives files as multipart "file" fields and adds
// them to the queue as Pending. Unsupported files are rejected one by
// one, never the whole batch.
func (s *Server) handleImportSelect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	files := make([]upload.File, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file: "+header.Filename)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file: "+header.Filename)
			return
		}
		files = append(files, upload.File{Name: header.Filename, Content: content})
	}

	added, rejected := s.queue.Select(files)
	s.logger.InfoContext(r.Context(), "Files selected for import",
		"added", len(added), "rejected", len(rejected))

	writeJSON(w, http.StatusOK, importSelection{Entries: added, Rejected: rejected})
}

// handleImportSubmit submits every Pending entry. Calling it again while
// a submit is running acts only on entries that are still Pending.
func (s *Server) handleImportSubmit(w http.ResponseWriter, r *http.Request) {
	submitted := s.queue.Submit(r.Context())
	writeJSON(w, http.StatusOK, importSelection{
		Entries:   s.queue.Entries(),
		Submitted: submitted,
	})
}

// handleImportRetry re-submits one failed entry.
func (s *Server) handleImportRetry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.queue.Retry(r.Context(), id); err != nil {
		s.logger.WarnContext(r.Context(), "Retry failed",
			log.FieldEntryID, id, log.FieldError, err)
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   err.Error(),
			"entries": s.queue.Entries(),
		})
		return
	}
	writeJSON(w, http.StatusOK, importSelection{Entries: s.queue.Entries()})
}
