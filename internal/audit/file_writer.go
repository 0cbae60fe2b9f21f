package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// GenesisHash is the hash_prev value of the first event in a chain.
const GenesisHash = "sha256:genesis"

// FileWriter writes audit events to a JSONL file with hash chaining.
// Each event's hash covers the event content and the previous event's
// hash, so any modification or deletion breaks the chain.
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	lastHash string
}

// NewFileWriter opens or creates an audit log file in append mode.
// If the file already contains events, the chain continues from the
// last event's hash.
func NewFileWriter(path string) (*FileWriter, error) {
	lastHash, err := readLastHash(path)
	if err != nil {
		return nil, fmt.Errorf("audit: reading existing log: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: opening log: %w", err)
	}

	return &FileWriter{file: f, lastHash: lastHash}, nil
}

// Write chains, hashes and appends the event as one JSON line.
func (w *FileWriter) Write(event *Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := event.Validate(); err != nil {
		return fmt.Errorf("audit: invalid event: %w", err)
	}

	event.HashPrev = w.lastHash

	data, err := event.CanonicalJSON()
	if err != nil {
		return fmt.Errorf("audit: encoding event: %w", err)
	}
	event.Hash = calculateHash(data)

	line, err := event.JSON()
	if err != nil {
		return fmt.Errorf("audit: encoding event: %w", err)
	}

	if _, err := w.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: writing event: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("audit: syncing log: %w", err)
	}

	w.lastHash = event.Hash
	return nil
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// calculateHash computes sha256 over the canonical event bytes.
func calculateHash(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// readLastHash returns the hash of the last event in an existing log,
// or GenesisHash if the log does not exist or is empty.
func readLastHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return GenesisHash, nil
		}
		return "", err
	}
	defer f.Close()

	lastHash := GenesisHash
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return "", fmt.Errorf("malformed event: %w", err)
		}
		lastHash = ev.Hash
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return lastHash, nil
}

// VerifyChain reads an audit log and verifies the hash chain.
// Returns the number of valid events, or an error describing the
// first break in the chain.
func VerifyChain(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("audit: opening log: %w", err)
	}
	defer f.Close()

	count := 0
	expectedPrev := GenesisHash
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return count, fmt.Errorf("audit: event %d malformed: %w", count+1, err)
		}

		if ev.HashPrev != expectedPrev {
			return count, fmt.Errorf("audit: event %d chain broken: hash_prev %q, want %q",
				count+1, ev.HashPrev, expectedPrev)
		}

		data, err := ev.CanonicalJSON()
		if err != nil {
			return count, fmt.Errorf("audit: event %d: %w", count+1, err)
		}
		if got := calculateHash(data); got != ev.Hash {
			return count, fmt.Errorf("audit: event %d hash mismatch: recorded %q, computed %q",
				count+1, ev.Hash, got)
		}

		expectedPrev = ev.Hash
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}
	return count, nil
}
