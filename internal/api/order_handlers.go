package api

import (
	"net/http"
	"strconv"

	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/internal/service"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
)

// commentRequest carries a free-text comment or reason
type commentRequest struct {
	Comment string `json:"comment"`
	Reason  string `json:"reason"`
}

// getOrdersHandler lists orders. Admins may filter by status, dealer_id and factory_id.
func (s *Server) getOrdersHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := page(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	q := r.URL.Query()
	orders, err := s.svc.Orders.ListOrders(r.Context(), identity(r), repository.OrderFilter{
		DealerID:  q.Get("dealer_id"),
		Status:    models.OrderStatus(q.Get("status")),
		FactoryID: q.Get("factory_id"),
		Limit:     limit,
		Offset:    offset,
	})
	s.respond(w, r, http.StatusOK, orders, err)
}

// createOrderHandler places an order for the caller's dealer
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var in service.CreateOrderInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	order, err := s.svc.Orders.CreateOrder(r.Context(), identity(r), in)
	s.respond(w, r, http.StatusCreated, order, err)
}

// getOrderByIDHandler returns an order with its history and documents
func (s *Server) getOrderByIDHandler(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.Orders.GetOrder(r.Context(), identity(r), pathID(r))
	s.respond(w, r, http.StatusOK, detail, err)
}

func (s *Server) orderChecklistHandler(w http.ResponseWriter, r *http.Request) {
	target := models.OrderStatus(r.URL.Query().Get("target"))
	if target == "" {
		s.respondWithError(w, r, apperrors.NewValidationError("target is required"))
		return
	}

	missing, err := s.svc.Orders.Checklist(r.Context(), identity(r), pathID(r), target)
	s.respond(w, r, http.StatusOK, missing, err)
}

// updateOrderStatusHandler moves an order through the pipeline
func (s *Server) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	var in service.TransitionInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	order, err := s.svc.Orders.TransitionStatus(r.Context(), identity(r), pathID(r), in)
	s.respond(w, r, http.StatusOK, order, err)
}

func (s *Server) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if r.ContentLength != 0 {
		if err := s.decodeJSON(w, r, &req); err != nil {
			s.respondWithError(w, r, err)
			return
		}
	}

	order, err := s.svc.Orders.CancelOrder(r.Context(), identity(r), pathID(r), req.Reason)
	s.respond(w, r, http.StatusOK, order, err)
}

func (s *Server) annotateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	entry, err := s.svc.Orders.Annotate(r.Context(), identity(r), pathID(r), req.Comment)
	s.respond(w, r, http.StatusCreated, entry, err)
}

func (s *Server) reassignOrderHandler(w http.ResponseWriter, r *http.Request) {
	var in service.AssignmentInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	order, err := s.svc.Orders.Reassign(r.Context(), identity(r), pathID(r), in)
	s.respond(w, r, http.StatusOK, order, err)
}

// uploadOrderDocumentHandler takes a multipart form with a "file" part, a "doc_type"
// field and an optional "visible_to_dealer" flag
func (s *Server) uploadOrderDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if err := parseUpload(w, r); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondWithError(w, r, apperrors.NewValidationError("file is required"))
		return
	}
	defer file.Close()

	visible := false
	if v := r.FormValue("visible_to_dealer"); v != "" {
		if visible, err = strconv.ParseBool(v); err != nil {
			s.respondWithError(w, r, apperrors.NewValidationError("invalid visible_to_dealer"))
			return
		}
	}

	media, err := s.svc.Orders.UploadDocument(r.Context(), identity(r), pathID(r), service.UploadInput{
		DocType:         models.DocumentType(r.FormValue("doc_type")),
		FileName:        header.Filename,
		ContentType:     header.Header.Get("Content-Type"),
		VisibleToDealer: visible,
		Body:            file,
	})
	s.respond(w, r, http.StatusCreated, media, err)
}
