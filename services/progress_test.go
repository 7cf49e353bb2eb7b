package services

import (
	"encoding/json"
	"testing"
)

func TestProgressEnvelopeRoundTrip(t *testing.T) {
	t.Setenv("DATA_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	original := json.RawMessage(`{"answered":["comm-01","fin-02"],"step":7}`)

	sealed, err := sealProgress(original)
	if err != nil {
		t.Fatalf("sealProgress error: %v", err)
	}

	// The blob must not be stored in clear text.
	var envelope progressEnvelope
	if err := json.Unmarshal(sealed, &envelope); err != nil {
		t.Fatalf("sealed payload is not a JSON envelope: %v", err)
	}
	if envelope.SchemaVersion != ProgressSchemaVersion {
		t.Fatalf("expected schema version %d, got %d", ProgressSchemaVersion, envelope.SchemaVersion)
	}
	if envelope.Encrypted == "" || envelope.Encrypted == string(original) {
		t.Fatal("expected an encrypted blob")
	}

	data, ok, err := openProgress(sealed)
	if err != nil {
		t.Fatalf("openProgress error: %v", err)
	}
	if !ok {
		t.Fatal("expected current-version snapshot to open")
	}
	if string(data) != string(original) {
		t.Fatalf("round trip mismatch: %s", data)
	}
}

func TestProgressEnvelopeDiscardsOldVersions(t *testing.T) {
	t.Setenv("DATA_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	sealed, err := sealProgress(json.RawMessage(`{"step":1}`))
	if err != nil {
		t.Fatalf("sealProgress error: %v", err)
	}

	var envelope progressEnvelope
	if err := json.Unmarshal(sealed, &envelope); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	envelope.SchemaVersion = ProgressSchemaVersion - 1
	stale, _ := json.Marshal(envelope)

	// A stale snapshot is absent, not broken: no error, no data.
	data, ok, err := openProgress(stale)
	if err != nil {
		t.Fatalf("openProgress error on stale version: %v", err)
	}
	if ok || data != nil {
		t.Fatalf("expected stale snapshot to be discarded, got %s", data)
	}
}
