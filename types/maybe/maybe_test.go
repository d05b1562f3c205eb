package maybe

import (
	"encoding/json"
	"testing"
)

func TestMaybeJSON(t *testing.T) {
	type row struct {
		Temperature Maybe[float64] `json:"temperature"`
		Humidity    Maybe[float64] `json:"humidity"`
	}

	b, err := json.Marshal(row{Temperature: Some(12.5), Humidity: None[float64]()})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	expected := `{"temperature":12.5,"humidity":null}`
	if string(b) != expected {
		t.Errorf("Marshal expected %s, got %s", expected, b)
	}

	var r row
	if err := json.Unmarshal([]byte(`{"temperature":null,"humidity":80}`), &r); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if r.Temperature.IsValid() {
		t.Errorf("Temperature expected to be absent, got %v", r.Temperature.Value())
	}
	if !r.Humidity.IsValid() || r.Humidity.Value() != 80 {
		t.Errorf("Humidity expected 80, got %+v", r.Humidity)
	}
}

func TestMaybePtr(t *testing.T) {
	if p := None[int]().Ptr(); p != nil {
		t.Errorf("Ptr() expected nil, got %v", *p)
	}
	if p := Some(3).Ptr(); p == nil || *p != 3 {
		t.Errorf("Ptr() expected 3, got %v", p)
	}
}
