package handler

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestSchemas_List(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/schemas")
	if err != nil {
		t.Fatalf("GET /schemas failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Schemas []SchemaInfo `json:"schemas"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Schemas) != 1 {
		t.Fatalf("expected 1 schema, got %d", len(body.Schemas))
	}
	if body.Schemas[0].Filename != "injury_report.md" {
		t.Errorf("unexpected filename: %q", body.Schemas[0].Filename)
	}
	if body.Schemas[0].Title != "Injury Report" {
		t.Errorf("title should come from the first heading, got %q", body.Schemas[0].Title)
	}
}

func TestSchemas_Get(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/schemas/injury_report.md")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["filename"] != "injury_report.md" || body["content"] == "" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestSchemas_GetNotFound(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/schemas/missing.md")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
