package api

import (
	"net/http"

	"github.com/vaidashi/pool-dealer-portal/internal/service"
)

func (s *Server) listPoolStockHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.PoolStock.List(r.Context(), identity(r), r.URL.Query().Get("factory_id"))
	s.respond(w, r, http.StatusOK, rows, err)
}

func (s *Server) setPoolStockHandler(w http.ResponseWriter, r *http.Request) {
	var in service.PoolStockInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	row, err := s.svc.PoolStock.Set(r.Context(), identity(r), in)
	s.respond(w, r, http.StatusOK, row, err)
}

func (s *Server) poolStockSummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Reports.PoolStockSummary(r.Context(), identity(r))
	s.respond(w, r, http.StatusOK, summary, err)
}

func (s *Server) listItemsHandler(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r, "active")
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	items, err := s.svc.Inventory.ListItems(r.Context(), identity(r), active != nil && *active)
	s.respond(w, r, http.StatusOK, items, err)
}

func (s *Server) createItemHandler(w http.ResponseWriter, r *http.Request) {
	var in service.ItemInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	item, err := s.svc.Inventory.CreateItem(r.Context(), identity(r), in)
	s.respond(w, r, http.StatusCreated, item, err)
}

func (s *Server) updateItemHandler(w http.ResponseWriter, r *http.Request) {
	var in service.ItemInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	item, err := s.svc.Inventory.UpdateItem(r.Context(), identity(r), pathID(r), in)
	s.respond(w, r, http.StatusOK, item, err)
}

func (s *Server) adjustItemHandler(w http.ResponseWriter, r *http.Request) {
	var in service.AdjustmentInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	txn, err := s.svc.Inventory.Adjust(r.Context(), identity(r), pathID(r), in)
	s.respond(w, r, http.StatusCreated, txn, err)
}

func (s *Server) itemLedgerHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	txns, err := s.svc.Inventory.Ledger(r.Context(), identity(r), pathID(r), limit)
	s.respond(w, r, http.StatusOK, txns, err)
}

func (s *Server) stockLevelsHandler(w http.ResponseWriter, r *http.Request) {
	levels, err := s.svc.Inventory.StockLevels(r.Context(), identity(r), r.URL.Query().Get("factory_id"))
	s.respond(w, r, http.StatusOK, levels, err)
}

func (s *Server) lowStockHandler(w http.ResponseWriter, r *http.Request) {
	levels, err := s.svc.Inventory.LowStock(r.Context(), identity(r))
	s.respond(w, r, http.StatusOK, levels, err)
}
