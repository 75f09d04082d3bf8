package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]any{"target": in["name"], "locked": true})
	}))
	defer srv.Close()

	var out struct {
		Target string `json:"target"`
		Locked bool   `json:"locked"`
	}
	if err := PostJSON(context.Background(), srv.URL+"/api/lock", map[string]string{"name": "alice"}, &out); err != nil {
		t.Fatal(err)
	}
	if out.Target != "alice" || !out.Locked {
		t.Errorf("out = %+v", out)
	}
}

func TestGetJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"task not found"}`))
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), srv.URL, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want StatusError", err)
	}
	if se.Code != 404 || se.Message != "task not found" {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestDoJSON_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var out map[string]any
	if err := DoJSON(context.Background(), http.MethodPost, srv.URL, nil, &out); err != nil {
		t.Errorf("empty body: %v", err)
	}
}
