package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/viie/internal/config"
	"github.com/hyperjump/viie/internal/embedding"
	"github.com/hyperjump/viie/internal/models"
	"github.com/hyperjump/viie/internal/store"
	"github.com/hyperjump/viie/internal/vector"
)

// statusFor maps store, vector and embedding errors to HTTP status codes.
func statusFor(err error) int {
	var ee *store.EmbeddingError
	switch {
	case errors.Is(err, store.ErrCollectionNotFound), errors.Is(err, vector.ErrVectorIDNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrCollectionExists):
		return http.StatusConflict
	case vector.IsDimensionMismatch(err):
		return http.StatusBadRequest
	case errors.As(err, &ee):
		if embedding.IsUpstream(err) {
			return http.StatusBadGateway
		}
		if errors.Is(err, embedding.ErrInvalidDimension) {
			return http.StatusBadRequest
		}
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	names := s.store.ListCollections()
	total := 0
	for _, name := range names {
		if n, err := s.store.Len(name); err == nil {
			total += n
		}
	}
	resp := map[string]any{
		"collections":       len(names),
		"vectors":           total,
		"default_technique": s.store.DefaultMethod().String(),
	}
	if s.watch != nil {
		resp["watched_directories"] = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) collectionInfo(name string) (models.CollectionInfo, error) {
	dim, err := s.store.Dimension(name)
	if err != nil {
		return models.CollectionInfo{}, err
	}
	n, err := s.store.Len(name)
	if err != nil {
		return models.CollectionInfo{}, err
	}
	return models.CollectionInfo{Name: name, Dimension: dim, Count: n}, nil
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	resp := models.CollectionsResponse{Collections: []models.CollectionInfo{}}
	for _, name := range s.store.ListCollections() {
		info, err := s.collectionInfo(name)
		if err != nil {
			// deleted while listing
			continue
		}
		resp.Collections = append(resp.Collections, info)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCollectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Dimension <= 0 {
		s.respondError(w, http.StatusBadRequest, "dimension must be positive")
		return
	}
	s.logger.Debug("create collection request", zap.String("collection", req.Name), zap.Int("dim", req.Dimension))
	if err := s.store.CreateCollection(req.Name, req.Dimension); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, models.CollectionInfo{Name: req.Name, Dimension: req.Dimension})
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	info, err := s.collectionInfo(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.store.DeleteCollection(name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"collection": name, "status": "deleted"})
}

func (s *Server) handleInsertVector(w http.ResponseWriter, r *http.Request) {
	s.putVector(w, r, false)
}

func (s *Server) handleUpdateVector(w http.ResponseWriter, r *http.Request) {
	s.putVector(w, r, true)
}

func (s *Server) putVector(w http.ResponseWriter, r *http.Request, update bool) {
	name, id := chi.URLParam(r, "name"), chi.URLParam(r, "id")
	var req models.VectorRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Values) == 0 {
		s.respondError(w, http.StatusBadRequest, "values are required")
		return
	}
	v := vector.New(req.Values)
	var err error
	status := "inserted"
	if update {
		err = s.store.Update(name, id, v)
		status = "updated"
	} else {
		err = s.store.Insert(name, id, v)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": status})
}

func (s *Server) handleGetVector(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := s.store.Get(chi.URLParam(r, "name"), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.VectorResponse{ID: id, Values: v.Elements()})
}

func (s *Server) handleDeleteVector(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(chi.URLParam(r, "name"), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req models.SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("collection", name), zap.Int("top_k", req.TopK))
	start := time.Now()
	var results []vector.Result
	var err error
	if len(req.Vector) > 0 {
		results, err = s.store.Search(name, vector.New(req.Vector), req.TopK)
	} else {
		results, err = s.store.SearchText(r.Context(), name, req.Content, req.Technique, req.TopK)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.NewSearchResponse(name, results, time.Since(start)))
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req models.EmbedRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	s.logger.Debug("embed request",
		zap.String("collection", name),
		zap.String("id", req.ID),
		zap.String("technique", req.Technique))
	if err := s.store.EmbedAndInsert(r.Context(), name, req.ID, req.Content, req.Technique); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, models.EmbedResponse{ID: req.ID, Collection: name})
}

func (s *Server) handleEmbedBatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req models.BatchEmbedRequest
	if !s.decode(w, r, &req) {
		return
	}
	items := make([]store.BatchItem, len(req.Items))
	for i, it := range req.Items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		items[i] = store.BatchItem{ID: it.ID, Content: it.Content}
	}
	n, err := s.store.EmbedBatch(r.Context(), name, items, req.Technique)
	if err != nil {
		s.logger.Debug("batch embed stopped", zap.String("collection", name), zap.Int("inserted", n), zap.Error(err))
		s.respondJSON(w, statusFor(err), models.BatchEmbedResponse{Inserted: n, Error: err.Error()})
		return
	}
	s.respondJSON(w, http.StatusCreated, models.BatchEmbedResponse{Inserted: n})
}

func (s *Server) handlePreviewEmbed(w http.ResponseWriter, r *http.Request) {
	var req models.PreviewEmbedRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Dimension <= 0 {
		s.respondError(w, http.StatusBadRequest, "dimension must be positive")
		return
	}
	method, values, err := s.store.Generate(r.Context(), req.Content, req.Technique, req.Dimension, req.Fallback)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.PreviewEmbedResponse{Technique: method.String(), Values: values})
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := req.Sync == nil || *req.Sync
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistDirectories writes the watched directories back to the config file.
func (s *Server) persistDirectories() {
	if s.configPath == "" || s.fullConfig == nil {
		return
	}
	s.fullConfigMu.Lock()
	defer s.fullConfigMu.Unlock()
	s.fullConfig.Ingest.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.fullConfig); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
