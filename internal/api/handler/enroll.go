package handler

import (
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/certforge/keygen-ca/internal/api/dto"
	apierrors "github.com/certforge/keygen-ca/internal/api/errors"
	"github.com/certforge/keygen-ca/internal/audit"
	"github.com/certforge/keygen-ca/internal/ca"
	"github.com/certforge/keygen-ca/internal/challenge"
	"github.com/certforge/keygen-ca/internal/profile"
	"github.com/certforge/keygen-ca/pkg/spkac"
)

// DefaultProfile is used when an enrollment request names none.
const DefaultProfile = "client-auth"

// EnrollHandler handles SPKAC enrollment endpoints.
type EnrollHandler struct {
	ca         *ca.CA
	challenges *challenge.Store
	ttl        time.Duration
}

// NewEnrollHandler creates a new EnrollHandler.
func NewEnrollHandler(authority *ca.CA, challenges *challenge.Store, ttl time.Duration) *EnrollHandler {
	return &EnrollHandler{ca: authority, challenges: challenges, ttl: ttl}
}

// Challenge handles POST /api/v1/challenge. It issues a single-use
// token the browser embeds in its keygen element.
func (h *EnrollHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	token, err := h.challenges.New()
	if err != nil {
		status, apiErr := apierrors.MapError(err)
		respondError(w, status, apiErr)
		return
	}
	if err := audit.LogChallengeIssued(); err != nil {
		status, apiErr := apierrors.MapError(err)
		respondError(w, status, apiErr)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ChallengeResponse{
		Challenge: token,
		ExpiresIn: int(h.ttl.Seconds()),
	})
}

// Enroll handles POST /api/v1/enroll. The challenge token must have
// been issued by this server and is consumed whether or not the
// SPKAC verifies.
func (h *EnrollHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req dto.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("invalid JSON body"))
		return
	}
	if req.SPKAC == "" {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("spkac is required"))
		return
	}
	if req.Challenge == "" {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("challenge is required"))
		return
	}

	if err := h.challenges.Redeem(req.Challenge); err != nil {
		if auditErr := audit.LogAuthFailed(err.Error()); auditErr != nil {
			status, apiErr := apierrors.MapError(auditErr)
			respondError(w, status, apiErr)
			return
		}
		status, apiErr := apierrors.MapError(err)
		respondError(w, status, apiErr)
		return
	}

	profileName := req.Profile
	if profileName == "" {
		profileName = DefaultProfile
	}
	p, err := profile.Load(profileName)
	if err != nil {
		status, apiErr := apierrors.MapError(err)
		respondError(w, status, apiErr)
		return
	}

	cert, err := h.ca.Enroll(r.Context(), ca.EnrollRequest{
		SPKAC:     req.SPKAC,
		Challenge: req.Challenge,
		Subject:   subjectFromRequest(req.Subject),
		Profile:   p,
	})
	if err != nil {
		status, apiErr := apierrors.MapError(err)
		respondError(w, status, apiErr)
		return
	}

	respondJSON(w, http.StatusCreated, dto.EnrollResponse{
		Serial:      cert.SerialNumber.Text(16),
		Subject:     cert.Subject.String(),
		NotBefore:   cert.NotBefore.Format(time.RFC3339),
		NotAfter:    cert.NotAfter.Format(time.RFC3339),
		Certificate: string(spkac.CertificatePEM(cert)),
	})
}

// GetCert handles GET /api/v1/certs/{serial}.
func (h *EnrollHandler) GetCert(w http.ResponseWriter, r *http.Request) {
	serialHex := chi.URLParam(r, "serial")
	serial, ok := new(big.Int).SetString(serialHex, 16)
	if !ok {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("invalid serial"))
		return
	}

	certPEM, err := h.ca.Store().LoadCert(serial)
	if err != nil {
		status, apiErr := apierrors.MapError(err)
		respondError(w, status, apiErr)
		return
	}

	respondJSON(w, http.StatusOK, dto.CertResponse{
		Serial:      serial.Text(16),
		Certificate: string(certPEM),
	})
}

// GetCA handles GET /api/v1/ca. It returns the CA certificate so
// clients can install the issuing root.
func (h *EnrollHandler) GetCA(w http.ResponseWriter, r *http.Request) {
	cert := h.ca.Certificate()
	respondJSON(w, http.StatusOK, dto.CAResponse{
		Subject:     cert.Subject.String(),
		Certificate: string(spkac.CertificatePEM(cert)),
	})
}

func subjectFromRequest(s dto.SubjectRequest) spkac.Subject {
	return spkac.Subject{
		CommonName:         s.CommonName,
		Email:              s.Email,
		Organization:       s.Organization,
		OrganizationalUnit: s.OrganizationalUnit,
		Country:            s.Country,
		Locality:           s.Locality,
		Province:           s.Province,
		SerialNumber:       s.SerialNumber,
	}
}
