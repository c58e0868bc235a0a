package api

import (
	"net/http"

	"github.com/vaidashi/pool-dealer-portal/internal/service"
)

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	account, err := s.svc.Auth.Register(r.Context(), in)
	s.respond(w, r, http.StatusCreated, account, err)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	result, err := s.svc.Auth.Login(r.Context(), in)
	s.respond(w, r, http.StatusOK, result, err)
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Auth.Logout(r.Context(), bearerToken(r))
	s.respond(w, r, http.StatusOK, map[string]bool{"logged_out": true}, err)
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	me, err := s.svc.Auth.Me(r.Context(), identity(r))
	s.respond(w, r, http.StatusOK, me, err)
}

func (s *Server) createAdminHandler(w http.ResponseWriter, r *http.Request) {
	var in service.AdminInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	user, err := s.svc.Auth.CreateAdmin(r.Context(), identity(r), in)
	s.respond(w, r, http.StatusCreated, user, err)
}
