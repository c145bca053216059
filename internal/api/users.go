package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/VaultBox/internal/model"
	"github.com/dharsanguruparan/VaultBox/internal/repository"
)

// updateUserRequest mirrors the profile form: empty fields are left alone.
type updateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type userResponse struct {
	User *model.User `json:"user"`
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !authorizeOwner(w, r, id) {
		return
	}
	user, err := s.users.FindUserByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "Failed to fetch user", err, zap.String("userId", id))
		return
	}
	respondJSON(w, http.StatusOK, userResponse{User: user})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !authorizeOwner(w, r, id) {
		return
	}
	var in updateUserRequest
	if !s.decodeJSON(w, r, &in) {
		return
	}
	var patch model.UserPatch
	if in.Name != "" {
		patch.Name = &in.Name
	}
	if in.Email != "" {
		patch.Email = &in.Email
	}
	if in.Phone != "" {
		patch.Phone = &in.Phone
	}
	if in.Password != "" {
		hash, ok := s.hashPassword(w, r, in.Password, updateHashCost)
		if !ok {
			return
		}
		patch.PasswordHash = &hash
	}
	user, err := s.users.UpdateUser(r.Context(), id, patch)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "User with this email already exists")
	case err != nil:
		s.internalError(w, r, "Failed to update user", err, zap.String("userId", id))
	default:
		respondJSON(w, http.StatusOK, userResponse{User: user})
	}
}
