package api

import "net/http"

// NotificationPage is one page of a dealer's notifications
type NotificationPage struct {
	Items  interface{} `json:"items"`
	Unread int         `json:"unread"`
}

func (s *Server) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	unread, err := queryBool(r, "unread")
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	limit, offset, err := page(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	items, count, err := s.svc.Notifications.List(r.Context(), identity(r), unread != nil && *unread, limit, offset)
	s.respond(w, r, http.StatusOK, NotificationPage{Items: items, Unread: count}, err)
}

func (s *Server) markReadHandler(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Notifications.MarkRead(r.Context(), identity(r), pathID(r))
	s.respond(w, r, http.StatusOK, n, err)
}

func (s *Server) markAllReadHandler(w http.ResponseWriter, r *http.Request) {
	count, err := s.svc.Notifications.MarkAllRead(r.Context(), identity(r))
	s.respond(w, r, http.StatusOK, map[string]int{"marked": count}, err)
}
