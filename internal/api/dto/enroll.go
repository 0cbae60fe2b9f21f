package dto

// ChallengeResponse carries a freshly issued enrollment challenge.
// The challenge value is embedded into the keygen element and must be
// echoed back inside the signed SPKAC.
type ChallengeResponse struct {
	Challenge string `json:"challenge"`

	// ExpiresIn is the challenge lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// SubjectRequest holds the requested subject attributes for an
// enrollment. All fields are optional; the profile supplies defaults.
type SubjectRequest struct {
	CommonName         string `json:"cn,omitempty"`
	Email              string `json:"email,omitempty"`
	Organization       string `json:"o,omitempty"`
	OrganizationalUnit string `json:"ou,omitempty"`
	Country            string `json:"c,omitempty"`
	Locality           string `json:"l,omitempty"`
	Province           string `json:"st,omitempty"`
	SerialNumber       string `json:"serial_number,omitempty"`
}

// EnrollRequest is the body of POST /api/v1/enroll.
type EnrollRequest struct {
	// SPKAC is the base64 SignedPublicKeyAndChallenge produced by
	// the browser.
	SPKAC string `json:"spkac"`

	// Challenge is the token obtained from the challenge endpoint.
	Challenge string `json:"challenge"`

	// Profile names the enrollment profile. Defaults to
	// "client-auth".
	Profile string `json:"profile,omitempty"`

	Subject SubjectRequest `json:"subject"`
}

// EnrollResponse carries the issued certificate.
type EnrollResponse struct {
	Serial      string `json:"serial"`
	Subject     string `json:"subject"`
	NotBefore   string `json:"not_before"` // RFC3339
	NotAfter    string `json:"not_after"`  // RFC3339
	Certificate string `json:"certificate"` // PEM
}

// CertResponse carries a previously issued certificate.
type CertResponse struct {
	Serial      string `json:"serial"`
	Certificate string `json:"certificate"` // PEM
}

// CAResponse carries the CA certificate.
type CAResponse struct {
	Subject     string `json:"subject"`
	Certificate string `json:"certificate"` // PEM
}
