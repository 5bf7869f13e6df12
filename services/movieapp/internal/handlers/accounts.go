package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/example/movie-library/internal/platform/api"
	"github.com/example/movie-library/services/movieapp/internal/accounts"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
}

type registerResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

func Register(svc *accounts.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		u, err := svc.Register(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, log, err, accountResource)
			return
		}
		api.WriteJSON(w, http.StatusCreated, registerResponse{Message: "Registration successful", Email: u.Email})
	}
}

func Login(svc *accounts.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		sess, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, log, err, accountResource)
			return
		}
		api.WriteJSON(w, http.StatusOK, sess)
	}
}
