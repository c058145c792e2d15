package handlers

import (
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"strings"

	"github.com/gorilla/mux"
)

// APIPrefix is the mount point of the upload API
const APIPrefix = "/api"

// RouterConfig collects everything NewRouter wires together
type RouterConfig struct {
	Uploads     *UploadHandler
	Files       *FileHandler
	Logger      *slog.Logger
	Production  bool
	CORSOrigin  string
	FrontendDir string       // served at "/" in production when set
	RateLimiter *RateLimiter // optional
}

// NewRouter builds the HTTP handler: API routes, stored-file serving, the
// optional frontend bundle, and the middleware chain around them.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// API routes sit on the root router: a subrouter's method mismatch would be
	// reported through the root NotFoundHandler as 404 instead of 405.
	r.HandleFunc(APIPrefix+"/upload", cfg.Uploads.HandleUpload).Methods(http.MethodPost)
	r.HandleFunc(APIPrefix+"/delete", cfg.Uploads.HandleDelete).Methods(http.MethodPost)
	r.HandleFunc(APIPrefix+"/list", cfg.Uploads.HandleList).Methods(http.MethodGet)
	r.HandleFunc(APIPrefix+"/list/{folder:.+}", cfg.Uploads.HandleList).Methods(http.MethodGet)
	r.HandleFunc(APIPrefix+"/health", cfg.Uploads.HandleHealth).Methods(http.MethodGet)

	r.HandleFunc("/files/{path:.+}", cfg.Files.HandleGetFile).Methods(http.MethodGet, http.MethodHead)

	if !cfg.Production {
		r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	}
	if cfg.Production && cfg.FrontendDir != "" {
		r.PathPrefix("/").
			MatcherFunc(outsideAPI).
			Handler(newFrontendHandler(cfg.FrontendDir)).
			Methods(http.MethodGet, http.MethodHead)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondStatus(w, req, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondStatus(w, req, http.StatusMethodNotAllowed, "Method not allowed")
	})

	var handler http.Handler = r
	if cfg.RateLimiter != nil {
		handler = cfg.RateLimiter.Middleware(handler)
	}
	handler = CORS(cfg.CORSOrigin)(handler)
	handler = Recover(cfg.Production, cfg.Logger)(handler)
	handler = Logging(cfg.Logger)(handler)
	return RequestID(handler)
}

// outsideAPI keeps the frontend fallback from answering unknown or
// wrong-method API requests with index.html.
func outsideAPI(r *http.Request, _ *mux.RouteMatch) bool {
	return r.URL.Path != APIPrefix && !strings.HasPrefix(r.URL.Path, APIPrefix+"/")
}
