package api

import (
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/VaultBox/internal/model"
	"github.com/dharsanguruparan/VaultBox/internal/repository"
)

type createFileRequest struct {
	UserID  string         `json:"userId"`
	Name    string         `json:"name"`
	Type    model.FileType `json:"type"`
	Size    int64          `json:"size"`
	Content string         `json:"content"`
	Details string         `json:"details"`
}

type updateFileRequest struct {
	UserID string `json:"userId"`
	model.FilePatch
}

type fileResponse struct {
	File *model.FileItem `json:"file"`
}

type filesResponse struct {
	Files []model.FileItem `json:"files"`
}

type statsResponse struct {
	Stats model.FileStats `json:"stats"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerParam(w, r)
	if !ok {
		return
	}
	files, err := s.files.GetFilesByUserID(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, "Failed to fetch files", err, zap.String("userId", userID))
		return
	}
	respondJSON(w, http.StatusOK, filesResponse{Files: files})
}

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	var in createFileRequest
	if !s.decodeJSON(w, r, &in) {
		return
	}
	if in.UserID == "" || in.Name == "" || in.Type == "" || in.Content == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !in.Type.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return
	}
	if in.Size < 0 {
		writeError(w, http.StatusBadRequest, "Invalid file size")
		return
	}
	if !authorizeOwner(w, r, in.UserID) {
		return
	}
	file, err := s.files.CreateFile(r.Context(), &model.FileItem{
		ID:      newFileID(time.Now()),
		UserID:  in.UserID,
		Name:    in.Name,
		Type:    in.Type,
		Size:    in.Size,
		Content: in.Content,
		Details: in.Details,
	})
	if err != nil {
		s.internalError(w, r, "Failed to create file", err, zap.String("userId", in.UserID))
		return
	}
	respondJSON(w, http.StatusCreated, fileResponse{File: file})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	file, err := s.files.GetFileByID(r.Context(), id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "Failed to fetch file", err, zap.String("fileId", id))
		return
	}
	respondJSON(w, http.StatusOK, fileResponse{File: file})
}

func (s *Server) handleUpdateFile(w http.ResponseWriter, r *http.Request) {
	var in updateFileRequest
	if !s.decodeJSON(w, r, &in) {
		return
	}
	if in.UserID == "" {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if in.Type != nil && !in.Type.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return
	}
	if in.Size != nil && *in.Size < 0 {
		writeError(w, http.StatusBadRequest, "Invalid file size")
		return
	}
	if !authorizeOwner(w, r, in.UserID) {
		return
	}
	id := chi.URLParam(r, "id")
	file, err := s.files.UpdateFile(r.Context(), id, in.UserID, in.FilePatch)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "Failed to update file", err, zap.String("fileId", id))
		return
	}
	respondJSON(w, http.StatusOK, fileResponse{File: file})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	removed, err := s.files.DeleteFile(r.Context(), id, userID)
	if err != nil {
		s.internalError(w, r, "Failed to delete file", err, zap.String("fileId", id))
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "File deleted successfully"})
}

func (s *Server) handleSearchFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerParam(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}
	files, err := s.files.SearchFiles(r.Context(), userID, query)
	if err != nil {
		s.internalError(w, r, "Failed to search files", err, zap.String("userId", userID))
		return
	}
	respondJSON(w, http.StatusOK, filesResponse{Files: files})
}

func (s *Server) handleFileStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerParam(w, r)
	if !ok {
		return
	}
	stats, err := s.files.GetFileStats(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, "Failed to fetch file stats", err, zap.String("userId", userID))
		return
	}
	respondJSON(w, http.StatusOK, statsResponse{Stats: stats})
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newFileID returns "<unix-millis>-<9 base36 chars>".
func newFileID(now time.Time) string {
	suffix := make([]byte, 9)
	base := big.NewInt(int64(len(idAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			suffix[i] = idAlphabet[(now.UnixNano()+int64(i))%int64(len(idAlphabet))]
			continue
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix)
}
