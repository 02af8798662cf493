package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"formpilot/internal/engine"
	"formpilot/internal/service/llm/providers/scripted"
	"formpilot/internal/session"
)

const testForm = `---
form_id: t
title: Test Form
fields:
  - id: name
    type: text
    required: true
    prompt: "What is your name?"
---
A test form.
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(responses ...string) *httptest.Server {
	provider := scripted.NewProvider(responses...)
	eng := engine.New(provider, testLogger())
	store := session.NewStore(30*time.Minute, testLogger())

	mux := http.NewServeMux()
	RegisterRoutes(mux,
		NewChatHandler(eng, store, testLogger()),
		NewSchemaHandler("testdata", testLogger()))
	return httptest.NewServer(mux)
}

func postChat(t *testing.T, server *httptest.Server, body map[string]interface{}) (int, ChatResponse) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(server.URL+"/chat", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /chat failed: %v", err)
	}
	defer resp.Body.Close()

	var out ChatResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode, out
}

func TestChat_GreetingTurn(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	status, out := postChat(t, server, map[string]interface{}{
		"form_context_md": testForm,
		"user_message":    "",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if out.ConversationID == "" {
		t.Error("response should carry a conversation id")
	}
	if out.Action == nil || out.Action.Action != engine.ActionMessage {
		t.Fatalf("expected MESSAGE greeting, got %+v", out.Action)
	}
}

func TestChat_ResumesSession(t *testing.T) {
	server := newTestServer(
		`{"intent": "multi_answer", "answers": {"name": "Bob"}}`,
		`{"action": "FORM_COMPLETE", "data": {"name": "Bob"}}`,
	)
	defer server.Close()

	_, first := postChat(t, server, map[string]interface{}{
		"form_context_md": testForm,
		"user_message":    "",
	})

	status, second := postChat(t, server, map[string]interface{}{
		"form_context_md": testForm,
		"user_message":    "I'm Bob",
		"conversation_id": first.ConversationID,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if second.ConversationID != first.ConversationID {
		t.Error("turn should resume the same conversation")
	}
	if second.Action.Action != engine.ActionFormComplete {
		t.Fatalf("expected FORM_COMPLETE, got %+v", second.Action)
	}
	if second.Answers["name"] != "Bob" {
		t.Errorf("answers missing from response: %v", second.Answers)
	}
}

func TestChat_UnknownConversationStartsFresh(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	status, out := postChat(t, server, map[string]interface{}{
		"form_context_md": testForm,
		"user_message":    "",
		"conversation_id": "gone-forever",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if out.ConversationID == "gone-forever" {
		t.Error("a new session should get a new id")
	}
}

func TestChat_ValidationErrors(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	// Empty form definition.
	status, _ := postChat(t, server, map[string]interface{}{
		"form_context_md": "",
		"user_message":    "hi",
	})
	if status != http.StatusBadRequest {
		t.Errorf("empty definition should 400, got %d", status)
	}

	// Malformed definition.
	status, _ = postChat(t, server, map[string]interface{}{
		"form_context_md": "no frontmatter here",
		"user_message":    "hi",
	})
	if status != http.StatusBadRequest {
		t.Errorf("malformed definition should 400, got %d", status)
	}

	// Non-JSON body.
	resp, err := http.Post(server.URL+"/chat", "application/json", bytes.NewReader([]byte("{nope")))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid body should 400, got %d", resp.StatusCode)
	}
}

func TestReset(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	_, out := postChat(t, server, map[string]interface{}{
		"form_context_md": testForm,
		"user_message":    "",
	})

	body, _ := json.Marshal(map[string]string{"conversation_id": out.ConversationID})
	resp, err := http.Post(server.URL+"/sessions/reset", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /sessions/reset failed: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["success"] != true {
		t.Errorf("expected success=true, got %v", result)
	}

	// Resetting again reports not found.
	body, _ = json.Marshal(map[string]string{"conversation_id": out.ConversationID})
	resp2, err := http.Post(server.URL+"/sessions/reset", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("second reset failed: %v", err)
	}
	defer resp2.Body.Close()
	if err := json.NewDecoder(resp2.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["success"] != false {
		t.Errorf("second reset should report success=false, got %v", result)
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("unexpected health body: %v", body)
	}
}
