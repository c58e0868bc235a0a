package api

import "net/http"

// outboxCountsHandler reports the relay backlog; failed messages are the dead letters
func (s *Server) outboxCountsHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := s.svc.Outbox.Counts(r.Context(), identity(r))
	s.respond(w, r, http.StatusOK, counts, err)
}

// requeueOutboxHandler returns every failed message to the processor
func (s *Server) requeueOutboxHandler(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Outbox.Requeue(r.Context(), identity(r))
	s.respond(w, r, http.StatusOK, map[string]int{"requeued": n}, err)
}
