package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/coderunner/sandbox/pkg/dispatch"
	"github.com/coderunner/sandbox/pkg/download"
	"github.com/coderunner/sandbox/pkg/lang"
	"github.com/coderunner/sandbox/pkg/rewrite"
	"github.com/coderunner/sandbox/pkg/sandbox"
)

type createTaskRequest struct {
	ProgrammingLanguage string `json:"programming_language"`
	SourceCode          string `json:"source_code"`
}

type acceptedResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	jobReq := sandbox.JobRequest{LanguageLabel: req.ProgrammingLanguage, SourceCode: req.SourceCode}
	if err := jobReq.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := lang.Normalize(req.ProgrammingLanguage); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	jobID := sandbox.NewJobID()
	job := dispatch.Job{ID: jobID, LanguageLabel: req.ProgrammingLanguage, SourceCode: req.SourceCode}

	if err := s.queue.Submit(r.Context(), job); err != nil {
		http.Error(w, "failed to enqueue job", http.StatusInternalServerError)
		return
	}

	writeAccepted(w, jobID, "accepted")
}

func (s *Server) taskResult(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["task_id"]
	if taskID == "" {
		http.Error(w, "missing task_id", http.StatusBadRequest)
		return
	}
	jobID := sandbox.JobID(taskID)

	state, err := s.queue.GetState(r.Context(), jobID)
	if errors.Is(err, dispatch.ErrUnknownJob) {
		http.Error(w, "unknown task_id", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to read task state", http.StatusInternalServerError)
		return
	}

	if state != dispatch.StateDone {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"state": string(state)})
		return
	}

	result, err := s.queue.GetResult(r.Context(), jobID)
	if errors.Is(err, dispatch.ErrUnknownJob) {
		http.Error(w, "unknown task_id", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to read task result", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

func (s *Server) createFileTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(sandbox.MaxSourceBytes * 2); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	languageLabel := r.FormValue("programming_language")
	sourceCode := r.FormValue("source_code")
	declaredInputs := r.MultipartForm.Value["input_files"]
	declaredOutputs := r.MultipartForm.Value["output_files"]
	fileHeaders := r.MultipartForm.File["files"]

	uploads := make([]sandbox.Upload, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to open upload %q", fh.Filename), http.StatusBadRequest)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to read upload %q", fh.Filename), http.StatusBadRequest)
			return
		}
		uploads = append(uploads, sandbox.Upload{Name: filepath.Base(fh.Filename), Content: content})
	}

	jobReq := sandbox.JobRequest{
		LanguageLabel:   languageLabel,
		SourceCode:      sourceCode,
		DeclaredInputs:  declaredInputs,
		DeclaredOutputs: declaredOutputs,
		Uploads:         uploads,
	}
	if err := jobReq.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := lang.Normalize(languageLabel); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	jobID := sandbox.NewJobID()

	for _, u := range uploads {
		if err := s.storageIn.Put(r.Context(), jobID.String(), u.Name, u.Content); err != nil {
			http.Error(w, "failed to stage input file", http.StatusInternalServerError)
			return
		}
	}

	rewritten, err := rewrite.Rewrite(sourceCode, jobID, declaredInputs, s.storageInRoot, s.storageOutRoot)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := dispatch.Job{
		ID:              jobID,
		LanguageLabel:   languageLabel,
		SourceCode:      rewritten,
		DeclaredOutputs: declaredOutputs,
		WithFiles:       true,
	}
	if err := s.queue.Submit(r.Context(), job); err != nil {
		http.Error(w, "failed to enqueue job", http.StatusInternalServerError)
		return
	}

	writeAccepted(w, jobID, "accepted")
}

func (s *Server) downloadFileTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["task_id"]
	if taskID == "" {
		http.Error(w, "missing task_id", http.StatusBadRequest)
		return
	}
	jobID := sandbox.JobID(taskID)

	state, err := s.queue.GetState(r.Context(), jobID)
	if errors.Is(err, dispatch.ErrUnknownJob) {
		http.Error(w, "unknown task_id", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to read task state", http.StatusInternalServerError)
		return
	}
	if state != dispatch.StateDone {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"state": string(state)})
		return
	}

	result, err := s.queue.GetResult(r.Context(), jobID)
	if err != nil {
		http.Error(w, "failed to read task result", http.StatusInternalServerError)
		return
	}
	if len(result.OutputFiles) == 0 {
		http.Error(w, "no output files", http.StatusNotFound)
		return
	}

	entries := make([]download.Entry, 0, len(result.OutputFiles))
	for _, f := range result.OutputFiles {
		entries = append(entries, download.Entry{JobID: taskID, StorageName: f.Name, ArchiveName: f.Name})
	}

	built, err := download.Build(r.Context(), s.storageOut, entries, taskID+".zip")
	if errors.Is(err, download.ErrNoOutputs) {
		http.Error(w, "no output files", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to build download", http.StatusInternalServerError)
		return
	}
	defer built.Reader.Close()

	contentType := "application/octet-stream"
	if built.IsZip {
		contentType = "application/zip"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", built.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, built.Reader); err != nil && s.log != nil {
		s.log.WithError(err).Warn("failed to stream download to client")
	}
}

type languageInfo struct {
	ID        string `json:"id"`
	Extension string `json:"extension"`
}

// languages serves the registry's supported-language set (§4.1) so a
// client can discover valid programming_language values and their source
// extensions without hard-coding them.
func (s *Server) languages(w http.ResponseWriter, r *http.Request) {
	all := lang.All()
	infos := make([]languageInfo, 0, len(all))
	for _, l := range all {
		ext, err := lang.Extension(l)
		if err != nil {
			continue
		}
		infos = append(infos, languageInfo{ID: string(l), Extension: ext})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(infos)
}

func writeAccepted(w http.ResponseWriter, jobID sandbox.JobID, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(acceptedResponse{TaskID: jobID.String(), Status: status})
}
