package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/hartfelt/mediakeep/pkg/logger"
	"github.com/hartfelt/mediakeep/pkg/manager"
	"go.uber.org/zap"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type GenericResponse struct {
	Error    *string `json:"error,omitempty"`
	Response any     `json:"response"`
}

// Server houses all dependencies for the media server to work such as loggers, the manager, configurations, etc.
type Server struct {
	baseLogger *zap.SugaredLogger
	manager    manager.MediaManager
	mediaRoot  string
}

// New creates a new media server. mediaRoot is served read-only under /media/.
func New(logger *zap.SugaredLogger, manager manager.MediaManager, mediaRoot string) Server {
	return Server{
		baseLogger: logger,
		manager:    manager,
		mediaRoot:  mediaRoot,
	}
}

func writeGenericResponse(w http.ResponseWriter, status int) error {
	return writeResponse(w, status, GenericResponse{})
}

func writeErrorResponse(w http.ResponseWriter, status int, err error) error {
	msg := err.Error()
	return writeResponse(w, status, GenericResponse{
		Error: &msg,
	})
}

func writeResponse(w http.ResponseWriter, status int, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	w.Header().Set("content-type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}

	w.Write(b)
	return nil
}

// Serve starts the http server and is a blocking call
func (s Server) Serve(port int) error {
	rtr := mux.NewRouter()
	rtr.Use(s.LogMiddleware())
	rtr.HandleFunc("/healthz", s.Healthz()).Methods(http.MethodGet)

	api := rtr.PathPrefix("/api").Subrouter()

	v1 := api.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/upload", s.Upload()).Methods(http.MethodPost)

	v1.HandleFunc("/files/browse", s.BrowseFiles()).Methods(http.MethodGet)
	v1.HandleFunc("/files/mkdir", s.MakeDirectory()).Methods(http.MethodPost)
	v1.HandleFunc("/files", s.DeleteFile()).Methods(http.MethodDelete)

	v1.HandleFunc("/media/movies", s.ListMovies()).Methods(http.MethodGet)
	v1.HandleFunc("/media/shows", s.ListShows()).Methods(http.MethodGet)
	v1.HandleFunc("/media/photos", s.ListPhotos()).Methods(http.MethodGet)

	rtr.PathPrefix("/media/").Handler(
		http.StripPrefix("/media/", http.FileServer(http.Dir(s.mediaRoot))),
	).Methods(http.MethodGet)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
	)(rtr)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: corsHandler,
	}

	go func() {
		s.baseLogger.Info("serving...", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil {
			s.baseLogger.Error(err.Error())
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	err := srv.Shutdown(ctx)
	// let in-flight poster downloads land before exiting
	s.manager.WaitPosters()
	return err
}

// Healthz is an endpoint that can be used for probes
func (s Server) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := GenericResponse{
			Response: "ok",
		}
		writeResponse(w, http.StatusOK, response)
	}
}

// Upload ingests one or more uploaded files into the library. Each multipart
// file part runs through the pipeline independently.
func (s Server) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		mr, err := r.MultipartReader()
		if err != nil {
			log.Debug("invalid multipart request", zap.Error(err))
			http.Error(w, "expected a multipart upload", http.StatusBadRequest)
			return
		}

		var results []manager.IngestResult
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			if part.FileName() == "" {
				continue
			}

			result, err := s.manager.IngestUpload(r.Context(), part, part.FileName())
			part.Close()
			if err != nil {
				log.Error("failed to ingest upload", zap.String("name", part.FileName()), zap.Error(err))
				writeErrorResponse(w, http.StatusInternalServerError, err)
				return
			}

			log.Info("ingested upload", zap.String("name", part.FileName()), zap.String("stored", result.StoredPath))
			results = append(results, result)
		}

		if len(results) == 0 {
			http.Error(w, "no file parts in upload", http.StatusBadRequest)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: results})
	}
}

// BrowseFiles lists a directory under the media root
func (s Server) BrowseFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		path := r.URL.Query().Get("path")

		entries, err := s.manager.Browse(r.Context(), path)
		if err != nil {
			log.Debug("failed to browse", zap.String("path", path), zap.Error(err))
			writeErrorResponse(w, statusFor(err), err)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: entries})
	}
}

// MakeDirectory creates a directory under the media root
func (s Server) MakeDirectory() http.HandlerFunc {
	type request struct {
		Path string `json:"path"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Debug("invalid request body", zap.Error(err))
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := s.manager.Mkdir(r.Context(), req.Path); err != nil {
			writeErrorResponse(w, statusFor(err), err)
			return
		}

		writeGenericResponse(w, http.StatusOK)
	}
}

// DeleteFile removes a file or directory under the media root
func (s Server) DeleteFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")

		if err := s.manager.Delete(r.Context(), path); err != nil {
			writeErrorResponse(w, statusFor(err), err)
			return
		}

		writeGenericResponse(w, http.StatusOK)
	}
}

// ListMovies lists movies in the library index
func (s Server) ListMovies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		movies, err := s.manager.Movies(r.Context())
		if err != nil {
			log.Error("failed to list movies", zap.Error(err))
			http.Error(w, "failed to list movies", http.StatusInternalServerError)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: movies})
	}
}

// ListShows lists shows in the library index
func (s Server) ListShows() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		shows, err := s.manager.Shows(r.Context())
		if err != nil {
			log.Error("failed to list shows", zap.Error(err))
			http.Error(w, "failed to list shows", http.StatusInternalServerError)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: shows})
	}
}

// ListPhotos lists the flat photo gallery
func (s Server) ListPhotos() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		photos, err := s.manager.Photos(r.Context())
		if err != nil {
			log.Error("failed to list photos", zap.Error(err))
			http.Error(w, "failed to list photos", http.StatusInternalServerError)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: photos})
	}
}

func statusFor(err error) int {
	if errors.Is(err, manager.ErrOutsideRoot) {
		return http.StatusBadRequest
	}
	if errors.Is(err, fs.ErrNotExist) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
