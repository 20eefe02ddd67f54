package api

import (
	"net/http"
	"time"

	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/rank"
)

// handleRank outlines the uploaded files and ranks their headings against the
// optional persona and job form fields in one synchronous call.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	persona := rank.ParseIntent([]byte(r.FormValue("persona")))
	job := rank.ParseIntent([]byte(r.FormValue("job")))

	proc := s.orchestrator.Processor()
	names := make([]string, 0, len(files))
	var outlines []pipeline.NamedOutline
	for _, fh := range files {
		filename, data, _, err := s.readUpload(fh)
		names = append(names, filename)
		if err != nil {
			s.log.Warn("rank: skipping upload", "document", filename, "error", err)
			continue
		}
		o, _, err := proc.Outline(r.Context(), filename, data)
		if err != nil {
			s.log.Warn("rank: skipping document", "document", filename, "error", err)
			continue
		}
		outlines = append(outlines, pipeline.NamedOutline{Name: filename, Outline: o})
	}

	writeJSON(w, http.StatusOK, pipeline.RankDocuments(names, outlines, persona, job, time.Now()))
}
