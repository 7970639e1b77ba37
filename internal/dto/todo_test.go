package dto

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDueAtTriState(t *testing.T) {
	var req UpdateTodoRequest
	if err := json.Unmarshal([]byte(`{"title":"x"}`), &req); err != nil {
		t.Fatal(err)
	}
	if req.DueDate.Present() {
		t.Error("absent dueDate must not be marked present")
	}

	req = UpdateTodoRequest{}
	if err := json.Unmarshal([]byte(`{"dueDate":null}`), &req); err != nil {
		t.Fatal(err)
	}
	if !req.DueDate.Present() || req.DueDate.Ptr() != nil {
		t.Error("explicit null must be present with nil value (clears the deadline)")
	}

	req = UpdateTodoRequest{}
	if err := json.Unmarshal([]byte(`{"dueDate":"2024-06-15"}`), &req); err != nil {
		t.Fatal(err)
	}
	got := req.DueDate.Ptr()
	if got == nil || !req.DueDate.Present() {
		t.Fatal("date value must be present and set")
	}
	want := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("date-only parsed as %v, want %v (start of day UTC)", got, want)
	}
}

func TestDueAtFormats(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"date only", `"2024-06-15"`, false},
		{"rfc3339", `"2024-06-15T18:30:00Z"`, false},
		{"rfc3339 with offset", `"2024-06-15T18:30:00+09:00"`, false},
		{"no zone", `"2024-06-15T18:30:00"`, false},
		{"empty string clears", `""`, false},
		{"garbage", `"next tuesday"`, true},
		{"numeric", `1718409600`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d DueAt
			err := d.UnmarshalJSON([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalJSON(%s) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestFromTodosNeverNil(t *testing.T) {
	out := FromTodos(nil)
	if out == nil {
		t.Fatal("FromTodos(nil) must return an empty slice")
	}
	b, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "[]" {
		t.Errorf("empty list marshals as %s, want []", b)
	}
}

func TestEnvelopeShapes(t *testing.T) {
	ok := OK(map[string]int{"n": 1})
	if !ok.Success || ok.Error != "" || ok.Timestamp == "" {
		t.Errorf("OK envelope = %+v", ok)
	}
	e := Err(MsgNotFound)
	if e.Success || e.Error != MsgNotFound || e.Timestamp == "" {
		t.Errorf("Err envelope = %+v", e)
	}
	if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
		t.Errorf("timestamp not RFC3339: %q", e.Timestamp)
	}
}
