// Package httpapi is the HTTP surface (§6): it accepts task submissions,
// stages uploaded input files, enqueues jobs onto the dispatch queue, and
// serves task-result polling and output-file download.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coderunner/sandbox/pkg/dispatch"
	"github.com/coderunner/sandbox/pkg/objectstore"
	"github.com/coderunner/sandbox/pkg/observability"
)

// Server wires the HTTP routes onto a gorilla/mux router.
//
// storageInRoot/storageOutRoot are the literal filesystem roots the
// placeholder rewriter addresses; they must match the paths the Container
// Invoker identity-mounts (§4.4), so they are always local paths even under
// SAVING_MODE=remote-object-store. No code in this repository copies objects
// between the remote store and these roots.
type Server struct {
	router        *mux.Router
	queue         dispatch.Queue
	storageIn     objectstore.Store
	storageOut    objectstore.Store
	storageInRoot string
	storageOutRoot string
	log           *observability.Logger
}

// NewServer constructs the router and registers every route in §6.
func NewServer(queue dispatch.Queue, storageIn, storageOut objectstore.Store, storageInRoot, storageOutRoot string, log *observability.Logger) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		queue:          queue,
		storageIn:      storageIn,
		storageOut:     storageOut,
		storageInRoot:  storageInRoot,
		storageOutRoot: storageOutRoot,
		log:            log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/task/create", s.createTask).Methods(http.MethodPost)
	s.router.HandleFunc("/task/{task_id}/task_result", s.taskResult).Methods(http.MethodGet)
	s.router.HandleFunc("/file_task/create", s.createFileTask).Methods(http.MethodPost)
	s.router.HandleFunc("/file_task/{task_id}/download", s.downloadFileTask).Methods(http.MethodGet)
	s.router.HandleFunc("/core/ping", s.ping).Methods(http.MethodGet)
	s.router.HandleFunc("/core/languages", s.languages).Methods(http.MethodGet)
}

// ServeHTTP lets Server be mounted directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
