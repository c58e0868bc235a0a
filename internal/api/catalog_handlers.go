package api

import (
	"net/http"

	"github.com/vaidashi/pool-dealer-portal/internal/service"
)

// includeInactive reads ?all=true; the service ignores it for dealers
func includeInactive(r *http.Request) (bool, error) {
	all, err := queryBool(r, "all")
	return all != nil && *all, err
}

func (s *Server) listFactoriesHandler(w http.ResponseWriter, r *http.Request) {
	all, err := includeInactive(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	factories, err := s.svc.Catalog.ListFactories(r.Context(), identity(r), all)
	s.respond(w, r, http.StatusOK, factories, err)
}

func (s *Server) createFactoryHandler(w http.ResponseWriter, r *http.Request) {
	var in service.FactoryInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	factory, err := s.svc.Catalog.CreateFactory(r.Context(), identity(r), in)
	s.respond(w, r, http.StatusCreated, factory, err)
}

func (s *Server) updateFactoryHandler(w http.ResponseWriter, r *http.Request) {
	var in service.FactoryInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	factory, err := s.svc.Catalog.UpdateFactory(r.Context(), identity(r), pathID(r), in)
	s.respond(w, r, http.StatusOK, factory, err)
}

func (s *Server) listPoolModelsHandler(w http.ResponseWriter, r *http.Request) {
	all, err := includeInactive(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	poolModels, err := s.svc.Catalog.ListPoolModels(r.Context(), identity(r), all)
	s.respond(w, r, http.StatusOK, poolModels, err)
}

func (s *Server) createPoolModelHandler(w http.ResponseWriter, r *http.Request) {
	var in service.PoolModelInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	poolModel, err := s.svc.Catalog.CreatePoolModel(r.Context(), identity(r), in)
	s.respond(w, r, http.StatusCreated, poolModel, err)
}

func (s *Server) updatePoolModelHandler(w http.ResponseWriter, r *http.Request) {
	var in service.PoolModelInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	poolModel, err := s.svc.Catalog.UpdatePoolModel(r.Context(), identity(r), pathID(r), in)
	s.respond(w, r, http.StatusOK, poolModel, err)
}

func (s *Server) listColorsHandler(w http.ResponseWriter, r *http.Request) {
	all, err := includeInactive(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	colors, err := s.svc.Catalog.ListColors(r.Context(), identity(r), all)
	s.respond(w, r, http.StatusOK, colors, err)
}

func (s *Server) createColorHandler(w http.ResponseWriter, r *http.Request) {
	var in service.ColorInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	color, err := s.svc.Catalog.CreateColor(r.Context(), identity(r), in)
	s.respond(w, r, http.StatusCreated, color, err)
}

func (s *Server) updateColorHandler(w http.ResponseWriter, r *http.Request) {
	var in service.ColorInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	color, err := s.svc.Catalog.UpdateColor(r.Context(), identity(r), pathID(r), in)
	s.respond(w, r, http.StatusOK, color, err)
}
