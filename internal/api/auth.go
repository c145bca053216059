package api

import (
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dharsanguruparan/VaultBox/internal/model"
	"github.com/dharsanguruparan/VaultBox/internal/repository"
)

const (
	registerHashCost = 10
	updateHashCost   = 12
)

// comparePassword is swapped in tests to observe how many hashes a login
// checks.
var comparePassword = bcrypt.CompareHashAndPassword

// dummyHash is compared against when the email is unknown, so a miss costs
// the same bcrypt work as a wrong password and response timing does not
// reveal which emails are registered.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("vaultbox-no-such-user"), registerHashCost)
	if err != nil {
		panic(err)
	}
	return hash
})

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if !s.decodeJSON(w, r, &in) {
		return
	}
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	ctx := r.Context()

	// Fast path for the common case; the store's unique constraint still
	// catches concurrent registrations below.
	_, err := s.users.FindUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		writeError(w, http.StatusConflict, "User with this email already exists")
		return
	case !errors.Is(err, repository.ErrNotFound):
		s.internalError(w, r, "Registration failed", err)
		return
	}

	hash, ok := s.hashPassword(w, r, in.Password, registerHashCost)
	if !ok {
		return
	}
	user, err := s.users.CreateUser(ctx, &model.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		writeError(w, http.StatusConflict, "User with this email already exists")
		return
	}
	if err != nil {
		s.internalError(w, r, "Registration failed", err)
		return
	}
	s.respondWithSession(w, r, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !s.decodeJSON(w, r, &in) {
		return
	}
	if in.Email == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	user, err := s.users.FindUserByEmail(r.Context(), in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		_ = comparePassword(dummyHash(), []byte(in.Password))
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		s.internalError(w, r, "Login failed", err)
		return
	}
	if comparePassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.respondWithSession(w, r, http.StatusOK, user)
}

func (s *Server) respondWithSession(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, err := s.signer.Sign(user.ID)
	if err != nil {
		s.internalError(w, r, "Failed to issue session", err, zap.String("userId", user.ID))
		return
	}
	respondJSON(w, status, authResponse{User: user, Token: token})
}

func (s *Server) hashPassword(w http.ResponseWriter, r *http.Request, password string, cost int) (string, bool) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		writeError(w, http.StatusBadRequest, "Password is too long")
		return "", false
	}
	if err != nil {
		s.internalError(w, r, "Failed to hash password", err)
		return "", false
	}
	return string(hash), true
}
