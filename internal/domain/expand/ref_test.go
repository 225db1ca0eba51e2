package expand

import (
	"encoding/json"
	"testing"
)

type position struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestUnmarshalBareID(t *testing.T) {
	var ref Ref[position]
	if err := json.Unmarshal([]byte(`"pos-1"`), &ref); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if ref.ID() != "pos-1" {
		t.Fatalf("expected id pos-1, got %q", ref.ID())
	}
	if _, ok := ref.Record(); ok {
		t.Fatal("bare reference must not carry a record")
	}
}

func TestUnmarshalExpandedRecord(t *testing.T) {
	var ref Ref[position]
	if err := json.Unmarshal([]byte(`{"id":"pos-2","name":"Server"}`), &ref); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if ref.ID() != "pos-2" {
		t.Fatalf("expected id pos-2, got %q", ref.ID())
	}
	record, ok := ref.Record()
	if !ok {
		t.Fatal("expected a populated record")
	}
	if record.Name != "Server" {
		t.Fatalf("expected name Server, got %q", record.Name)
	}
}

func TestUnmarshalNull(t *testing.T) {
	ref := Reference[position]("stale")
	if err := json.Unmarshal([]byte("null"), &ref); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !ref.IsZero() {
		t.Fatal("null must reset the ref")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	bare, err := json.Marshal(Reference[position]("pos-3"))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(bare) != `"pos-3"` {
		t.Fatalf("expected bare id, got %s", bare)
	}

	expanded, err := json.Marshal(Expanded("pos-4", &position{ID: "pos-4", Name: "Cook"}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back Ref[position]
	if err := json.Unmarshal(expanded, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.ID() != "pos-4" {
		t.Fatalf("expected id pos-4 after round trip, got %q", back.ID())
	}
}
