package api

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/service"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
)

func (s *Server) listDealersHandler(w http.ResponseWriter, r *http.Request) {
	approved, err := queryBool(r, "approved")
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	limit, offset, err := page(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	dealers, err := s.svc.Dealers.ListDealers(r.Context(), identity(r), approved, limit, offset)
	s.respond(w, r, http.StatusOK, dealers, err)
}

func (s *Server) getDealerHandler(w http.ResponseWriter, r *http.Request) {
	account, err := s.svc.Dealers.GetDealer(r.Context(), identity(r), pathID(r))
	s.respond(w, r, http.StatusOK, account, err)
}

func (s *Server) approveDealerHandler(w http.ResponseWriter, r *http.Request) {
	account, err := s.svc.Dealers.SetApproval(r.Context(), identity(r), pathID(r), true)
	s.respond(w, r, http.StatusOK, account, err)
}

func (s *Server) revokeDealerHandler(w http.ResponseWriter, r *http.Request) {
	account, err := s.svc.Dealers.SetApproval(r.Context(), identity(r), pathID(r), false)
	s.respond(w, r, http.StatusOK, account, err)
}

func (s *Server) dealerMetricsHandler(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Reports.DealerMetrics(r.Context(), identity(r), pathID(r))
	s.respond(w, r, http.StatusOK, m, err)
}

func (s *Server) dealerProgressHandler(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Reports.OnboardingProgress(r.Context(), identity(r), pathID(r))
	s.respond(w, r, http.StatusOK, p, err)
}

func (s *Server) ownMetricsHandler(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	m, err := s.svc.Reports.DealerMetrics(r.Context(), id, id.DealerID)
	s.respond(w, r, http.StatusOK, m, err)
}

func (s *Server) ownProgressHandler(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	p, err := s.svc.Reports.OnboardingProgress(r.Context(), id, id.DealerID)
	s.respond(w, r, http.StatusOK, p, err)
}

func (s *Server) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	dealer, err := s.svc.Dealers.UpdateProfile(r.Context(), identity(r), in)
	s.respond(w, r, http.StatusOK, dealer, err)
}

func (s *Server) updateOnboardingHandler(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := s.decodeJSON(w, r, &raw); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	dealer, err := s.svc.Dealers.UpdateOnboarding(r.Context(), identity(r), models.JSONDoc(raw))
	s.respond(w, r, http.StatusOK, dealer, err)
}

// formFile opens one part of a parsed multipart form as a service File
func formFile(r *http.Request, field string) (service.File, multipart.File, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return service.File{}, nil, apperrors.NewValidationError(field + " file is required")
	}
	return service.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, file, nil
}

// parseUpload bounds and parses a multipart request body
func parseUpload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return apperrors.NewValidationError("invalid multipart upload")
	}
	return nil
}

func (s *Server) uploadTaxDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if err := parseUpload(w, r); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, file, err := formFile(r, "file")
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	defer file.Close()

	dealer, err := s.svc.Dealers.UploadTaxDocument(r.Context(), identity(r), f)
	s.respond(w, r, http.StatusOK, dealer, err)
}

// signAgreementHandler takes "signature" and "agreement" file parts
func (s *Server) signAgreementHandler(w http.ResponseWriter, r *http.Request) {
	if err := parseUpload(w, r); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	signature, sigFile, err := formFile(r, "signature")
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	defer sigFile.Close()

	agreement, docFile, err := formFile(r, "agreement")
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	defer docFile.Close()

	dealer, err := s.svc.Dealers.SignAgreement(r.Context(), identity(r), signature, agreement)
	s.respond(w, r, http.StatusOK, dealer, err)
}
