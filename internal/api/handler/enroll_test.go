package handler

import (
	"bytes"
	"crypto"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/certforge/keygen-ca/internal/api/dto"
	"github.com/certforge/keygen-ca/internal/ca"
	"github.com/certforge/keygen-ca/internal/challenge"
	"github.com/certforge/keygen-ca/pkg/spkac"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

// buildSPKAC synthesizes a browser-style SPKAC for handler tests.
func buildSPKAC(t *testing.T, challengeValue string) string {
	t.Helper()

	testKeyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})

	spkiDER, err := x509.MarshalPKIXPublicKey(&testKey.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	pkacDER, err := asn1.Marshal(struct {
		SPKI      asn1.RawValue
		Challenge string `asn1:"ia5"`
	}{asn1.RawValue{FullBytes: spkiDER}, challengeValue})
	if err != nil {
		t.Fatal(err)
	}
	digest := md5.Sum(pkacDER)
	sig, err := rsa.SignPKCS1v15(rand.Reader, testKey, crypto.MD5, digest[:])
	if err != nil {
		t.Fatal(err)
	}
	der, err := asn1.Marshal(struct {
		PKAC      asn1.RawValue
		Algorithm pkix.AlgorithmIdentifier
		Signature asn1.BitString
	}{
		asn1.RawValue{FullBytes: pkacDER},
		pkix.AlgorithmIdentifier{Algorithm: spkac.OIDMD5WithRSA, Parameters: asn1.NullRawValue},
		asn1.BitString{Bytes: sig, BitLength: len(sig) * 8},
	})
	if err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(der)
}

// newTestRouter wires a throwaway CA and challenge store behind the
// enrollment routes.
func newTestRouter(t *testing.T) (http.Handler, *challenge.Store) {
	t.Helper()

	authority, err := ca.Initialize(t.TempDir(), ca.InitOptions{CommonName: "Handler Test CA"})
	if err != nil {
		t.Fatalf("initializing CA: %v", err)
	}
	challenges := challenge.NewStore(time.Minute)

	h := NewEnrollHandler(authority, challenges, time.Minute)
	r := chi.NewRouter()
	r.Post("/api/v1/challenge", h.Challenge)
	r.Post("/api/v1/enroll", h.Enroll)
	r.Get("/api/v1/certs/{serial}", h.GetCert)
	r.Get("/api/v1/ca", h.GetCA)
	return r, challenges
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChallengeEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/challenge", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var resp dto.ChallengeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Challenge == "" {
		t.Error("challenge is empty")
	}
	if resp.ExpiresIn != 60 {
		t.Errorf("ExpiresIn = %d, want 60", resp.ExpiresIn)
	}
}

func TestEnrollEndpoint(t *testing.T) {
	router, challenges := newTestRouter(t)

	token, err := challenges.New()
	if err != nil {
		t.Fatal(err)
	}

	rec := postJSON(t, router, "/api/v1/enroll", dto.EnrollRequest{
		SPKAC:     buildSPKAC(t, token),
		Challenge: token,
		Subject:   dto.SubjectRequest{CommonName: "Alice", Email: "alice@example.com"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}

	var resp dto.EnrollResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Serial == "" {
		t.Error("serial is empty")
	}
	if !strings.Contains(resp.Subject, "Alice") {
		t.Errorf("subject %q does not contain CN", resp.Subject)
	}
	if !strings.HasPrefix(resp.Certificate, "-----BEGIN CERTIFICATE-----") {
		t.Error("certificate is not PEM")
	}

	// Issued certificate must be fetchable by serial.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/certs/"+resp.Serial, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)
	if getRec.Code != http.StatusOK {
		t.Fatalf("GetCert status = %d, want %d", getRec.Code, http.StatusOK)
	}
	var certResp dto.CertResponse
	if err := json.NewDecoder(getRec.Body).Decode(&certResp); err != nil {
		t.Fatal(err)
	}
	if certResp.Serial != resp.Serial {
		t.Errorf("GetCert serial = %q, want %q", certResp.Serial, resp.Serial)
	}
}

func TestEnrollChallengeSingleUse(t *testing.T) {
	router, challenges := newTestRouter(t)

	token, err := challenges.New()
	if err != nil {
		t.Fatal(err)
	}
	spkacValue := buildSPKAC(t, token)

	first := postJSON(t, router, "/api/v1/enroll", dto.EnrollRequest{
		SPKAC:     spkacValue,
		Challenge: token,
		Subject:   dto.SubjectRequest{CommonName: "Alice"},
	})
	if first.Code != http.StatusCreated {
		t.Fatalf("first enroll status = %d, want %d", first.Code, http.StatusCreated)
	}

	second := postJSON(t, router, "/api/v1/enroll", dto.EnrollRequest{
		SPKAC:     spkacValue,
		Challenge: token,
		Subject:   dto.SubjectRequest{CommonName: "Alice"},
	})
	if second.Code != http.StatusUnprocessableEntity {
		t.Errorf("replayed enroll status = %d, want %d", second.Code, http.StatusUnprocessableEntity)
	}
}

func TestEnrollChallengeMismatch(t *testing.T) {
	router, challenges := newTestRouter(t)

	token, err := challenges.New()
	if err != nil {
		t.Fatal(err)
	}

	// SPKAC embeds a different challenge than the redeemed token.
	rec := postJSON(t, router, "/api/v1/enroll", dto.EnrollRequest{
		SPKAC:     buildSPKAC(t, "something-else"),
		Challenge: token,
		Subject:   dto.SubjectRequest{CommonName: "Alice"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	var apiErr dto.APIError
	if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
		t.Fatal(err)
	}
	if apiErr.Code != "CHALLENGE_MISMATCH" {
		t.Errorf("error code = %q, want CHALLENGE_MISMATCH", apiErr.Code)
	}
}

func TestEnrollMalformedSPKAC(t *testing.T) {
	router, challenges := newTestRouter(t)

	token, err := challenges.New()
	if err != nil {
		t.Fatal(err)
	}

	rec := postJSON(t, router, "/api/v1/enroll", dto.EnrollRequest{
		SPKAC:     "bm90IGEgc3BrYWM=",
		Challenge: token,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestEnrollMissingFields(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/enroll", dto.EnrollRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestEnrollUnknownProfile(t *testing.T) {
	router, challenges := newTestRouter(t)

	token, err := challenges.New()
	if err != nil {
		t.Fatal(err)
	}

	rec := postJSON(t, router, "/api/v1/enroll", dto.EnrollRequest{
		SPKAC:     buildSPKAC(t, token),
		Challenge: token,
		Profile:   "no-such-profile",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetCertNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/certs/ff", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetCA(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ca", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp dto.CAResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Subject, "Handler Test CA") {
		t.Errorf("subject = %q, want it to contain the CA name", resp.Subject)
	}
	if !strings.HasPrefix(resp.Certificate, "-----BEGIN CERTIFICATE-----") {
		t.Error("certificate is not PEM")
	}
}
