package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileWriterChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}

	events := []*Event{
		NewEvent(EventCACreated, ResultSuccess).WithObject(Object{Type: "ca", Path: "/tmp/ca"}),
		NewEvent(EventChallengeIssued, ResultSuccess).WithObject(Object{Type: "challenge"}),
		NewEvent(EventCertIssued, ResultSuccess).WithObject(Object{Type: "certificate", Serial: "02"}),
	}
	for _, ev := range events {
		if err := w.Write(ev); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if events[0].HashPrev != GenesisHash {
		t.Errorf("first event HashPrev = %q, want %q", events[0].HashPrev, GenesisHash)
	}
	if events[1].HashPrev != events[0].Hash {
		t.Error("second event does not chain to the first")
	}
	if events[2].HashPrev != events[1].Hash {
		t.Error("third event does not chain to the second")
	}

	count, err := VerifyChain(path)
	if err != nil {
		t.Fatalf("VerifyChain() error = %v", err)
	}
	if count != 3 {
		t.Errorf("VerifyChain() count = %d, want 3", count)
	}
}

func TestFileWriterResumesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(NewEvent(EventCACreated, ResultSuccess)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	// A new writer on the same file must continue the chain.
	w, err = NewFileWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(NewEvent(EventCALoaded, ResultSuccess)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	count, err := VerifyChain(path)
	if err != nil {
		t.Fatalf("VerifyChain() error = %v", err)
	}
	if count != 2 {
		t.Errorf("VerifyChain() count = %d, want 2", count)
	}
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := w.Write(NewEvent(EventChallengeIssued, ResultSuccess)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	// Tamper with the second event's result field.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var ev Event
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatal(err)
	}
	ev.Result = ResultFailure
	tampered, err := json.Marshal(&ev)
	if err != nil {
		t.Fatal(err)
	}
	lines[1] = string(tampered)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	count, err := VerifyChain(path)
	if err == nil {
		t.Fatal("VerifyChain() = nil, want error on tampered log")
	}
	if count != 1 {
		t.Errorf("VerifyChain() count = %d, want 1 valid event before the break", count)
	}
}

func TestVerifyChainDetectsDeletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := w.Write(NewEvent(EventChallengeIssued, ResultSuccess)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	// Drop the middle event.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	out := lines[0] + "\n" + lines[2] + "\n"
	if err := os.WriteFile(path, []byte(out), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := VerifyChain(path); err == nil {
		t.Error("VerifyChain() = nil, want error after deletion")
	}
}

func TestEventValidate(t *testing.T) {
	ev := NewEvent(EventCertIssued, ResultSuccess)
	if err := ev.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bad := &Event{}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() on empty event = nil, want error")
	}
}

func TestGlobalLogHelpers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	if err := InitFile(path); err != nil {
		t.Fatalf("InitFile() error = %v", err)
	}

	if err := LogCACreated("/tmp/ca", "CN=Test CA", "ecdsa-p256"); err != nil {
		t.Errorf("LogCACreated() error = %v", err)
	}
	if err := LogSPKACVerified("1.2.840.113549.1.1.4"); err != nil {
		t.Errorf("LogSPKACVerified() error = %v", err)
	}
	if err := LogSPKACRejected("invalid signature"); err != nil {
		t.Errorf("LogSPKACRejected() error = %v", err)
	}
	if err := LogCertIssued("02", "CN=Alice", "client-auth", "/tmp/ca"); err != nil {
		t.Errorf("LogCertIssued() error = %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var types []EventType
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatal(err)
		}
		types = append(types, ev.EventType)
	}
	want := []EventType{EventCACreated, EventSPKACVerified, EventSPKACRejected, EventCertIssued}
	if len(types) != len(want) {
		t.Fatalf("logged %d events, want %d", len(types), len(want))
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}

	// After Close the global writer is a no-op again.
	if err := LogChallengeIssued(); err != nil {
		t.Errorf("LogChallengeIssued() after Close error = %v", err)
	}
}

func TestMultiWriter(t *testing.T) {
	dir := t.TempDir()
	w1, err := NewFileWriter(filepath.Join(dir, "a.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	w2, err := NewFileWriter(filepath.Join(dir, "b.jsonl"))
	if err != nil {
		t.Fatal(err)
	}

	mw := NewMultiWriter(w1, w2)
	if err := mw.Write(NewEvent(EventCALoaded, ResultSuccess)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	for _, name := range []string{"a.jsonl", "b.jsonl"} {
		count, err := VerifyChain(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("VerifyChain(%s) error = %v", name, err)
		}
		if count != 1 {
			t.Errorf("VerifyChain(%s) count = %d, want 1", name, count)
		}
	}
}
