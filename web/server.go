package web

import (
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/mogaika/frametree/config"
	"github.com/mogaika/frametree/scriptlang"
	"github.com/mogaika/frametree/status"
)

// Server exposes a scene over http. Handlers hold the lock for the whole
// request, so the scene only ever sees one writer.
type Server struct {
	lock   sync.Mutex
	scene  *scriptlang.Scene
	hub    *status.Hub
	router *mux.Router

	// used by /dump/tree, the format is always json
	DumpOptions config.EncodeOptions
}

func NewServer(scene *scriptlang.Scene, hub *status.Hub) *Server {
	s := &Server{scene: scene, hub: hub, DumpOptions: config.Exact()}
	s.DumpOptions.Pretty = true

	r := mux.NewRouter()
	r.HandleFunc("/json/roots", s.HandlerRoots).Methods("GET")
	r.HandleFunc("/json/tree/{root}", s.HandlerTree).Methods("GET")
	r.HandleFunc("/json/frame/{path:.+}", s.HandlerFrame).Methods("GET")
	r.HandleFunc("/action/root/{root}", s.HandlerActionRoot).Methods("POST")
	r.HandleFunc("/action/child/{path:.+}", s.HandlerActionChild).Methods("POST")
	r.HandleFunc("/action/transform/{path:.+}", s.HandlerActionTransform).Methods("POST")
	r.HandleFunc("/action/script", s.HandlerActionScript).Methods("POST")
	r.HandleFunc("/json/poses", s.HandlerPoses).Methods("GET")
	r.HandleFunc("/json/pose/{label}", s.HandlerPose).Methods("GET")
	r.HandleFunc("/action/pose/{label}", s.HandlerActionPose).Methods("POST")
	r.HandleFunc("/action/resolve/{label}", s.HandlerActionResolve).Methods("POST")
	r.HandleFunc("/upload/tree", s.HandlerUploadTree).Methods("POST")
	r.HandleFunc("/dump/tree/{root}", s.HandlerDumpTree).Methods("GET")
	r.HandleFunc("/dump/gltf/{root}", s.HandlerDumpGLTF).Methods("GET")
	if hub != nil {
		r.Handle("/ws/status", hub)
	}
	s.router = r

	return s
}

func (s *Server) Handler() http.Handler {
	return handlers.LoggingHandler(os.Stdout, handlers.RecoveryHandler()(s.router))
}

func (s *Server) ListenAndServe(addr string) error {
	log.Info().Str("addr", addr).Msg("[web] Starting server")
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) changed(path string) {
	if s.hub != nil {
		s.hub.Changed(path)
	}
}
