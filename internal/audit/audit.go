package audit

import "sync"

var (
	mu     sync.RWMutex
	writer Writer = NopWriter{}
)

// Init sets the global audit writer.
func Init(w Writer) {
	mu.Lock()
	defer mu.Unlock()
	writer = w
}

// InitFile initializes the global audit writer with a hash-chained
// file writer at the given path.
func InitFile(path string) error {
	fw, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	Init(fw)
	return nil
}

// Close closes the global writer and resets it to a no-op.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	err := writer.Close()
	writer = NopWriter{}
	return err
}

// Log writes an event through the global writer. A returned error
// means the event was not persisted and the audited operation must
// fail.
func Log(event *Event) error {
	mu.RLock()
	w := writer
	mu.RUnlock()
	return w.Write(event)
}

// LogCACreated records creation of a new CA.
func LogCACreated(path, subject, algorithm string) error {
	return Log(NewEvent(EventCACreated, ResultSuccess).
		WithObject(Object{Type: "ca", Path: path, Subject: subject}).
		WithContext(Context{Algorithm: algorithm}))
}

// LogCALoaded records loading of an existing CA.
func LogCALoaded(path, subject string) error {
	return Log(NewEvent(EventCALoaded, ResultSuccess).
		WithObject(Object{Type: "ca", Path: path, Subject: subject}))
}

// LogKeyAccessed records access to the CA private key.
func LogKeyAccessed(path string) error {
	return Log(NewEvent(EventKeyAccessed, ResultSuccess).
		WithObject(Object{Type: "ca", Path: path}))
}

// LogSPKACVerified records a successful SPKAC signature and
// challenge verification.
func LogSPKACVerified(algorithm string) error {
	return Log(NewEvent(EventSPKACVerified, ResultSuccess).
		WithObject(Object{Type: "spkac"}).
		WithContext(Context{Algorithm: algorithm}))
}

// LogSPKACRejected records a rejected SPKAC submission.
func LogSPKACRejected(reason string) error {
	return Log(NewEvent(EventSPKACRejected, ResultFailure).
		WithObject(Object{Type: "spkac"}).
		WithContext(Context{Reason: reason}))
}

// LogCertIssued records issuance of a certificate.
func LogCertIssued(serial, subject, profile, caPath string) error {
	return Log(NewEvent(EventCertIssued, ResultSuccess).
		WithObject(Object{Type: "certificate", Serial: serial, Subject: subject}).
		WithContext(Context{Profile: profile, CA: caPath}))
}

// LogChallengeIssued records issuance of an enrollment challenge.
func LogChallengeIssued() error {
	return Log(NewEvent(EventChallengeIssued, ResultSuccess).
		WithObject(Object{Type: "challenge"}))
}

// LogAuthFailed records a failed authentication or challenge
// redemption attempt.
func LogAuthFailed(reason string) error {
	return Log(NewEvent(EventAuthFailed, ResultFailure).
		WithContext(Context{Reason: reason}))
}
