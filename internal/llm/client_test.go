package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8081", "test-key", "test-model", 0)
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8081" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8081", client.BaseURL)
	}
	if client.APIKey != "test-key" {
		t.Errorf("NewClient() APIKey = %v, want test-key", client.APIKey)
	}
	if client.Model != "test-model" {
		t.Errorf("NewClient() Model = %v, want test-model", client.Model)
	}
	if client.client.Timeout != DefaultTimeout {
		t.Errorf("NewClient() timeout = %v, want %v", client.client.Timeout, DefaultTimeout)
	}
}

func chatReply(content string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := ChatResponse{
			ID:     "test-id",
			Object: "chat.completion",
			Choices: []ChatChoice{
				{
					Index: 0,
					Message: ChatChoiceMessage{
						Role:    "assistant",
						Content: content,
					},
					FinishReason: "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestClient_ChatWithMessages(t *testing.T) {
	tests := []struct {
		name       string
		params     ChatParams
		serverResp func(t *testing.T) func(w http.ResponseWriter, r *http.Request)
		wantReply  string
		wantErr    bool
	}{
		{
			name:   "successful chat with default model",
			params: ChatParams{Temperature: 0.2},
			serverResp: func(t *testing.T) func(w http.ResponseWriter, r *http.Request) {
				return func(w http.ResponseWriter, r *http.Request) {
					if r.Method != http.MethodPost {
						t.Errorf("expected POST, got %s", r.Method)
					}
					if r.URL.Path != "/v1/chat/completions" {
						t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
					}
					if !strings.Contains(r.Header.Get("Authorization"), "Bearer test-key") {
						t.Error("missing Authorization header")
					}
					var req ChatRequest
					if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
						t.Errorf("decode request: %v", err)
						return
					}
					if req.Model != "test-model" {
						t.Errorf("model = %q, want test-model", req.Model)
					}
					if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
						t.Errorf("messages = %+v", req.Messages)
					}
					if req.ResponseFormat != nil {
						t.Errorf("response_format = %+v, want none", req.ResponseFormat)
					}
					chatReply("Hi there!")(w, r)
				}
			},
			wantReply: "Hi there!",
		},
		{
			name:   "json mode and model override",
			params: ChatParams{Model: "other", JSON: true},
			serverResp: func(t *testing.T) func(w http.ResponseWriter, r *http.Request) {
				return func(w http.ResponseWriter, r *http.Request) {
					var req ChatRequest
					if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
						t.Errorf("decode request: %v", err)
						return
					}
					if req.Model != "other" {
						t.Errorf("model = %q, want other", req.Model)
					}
					if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
						t.Errorf("response_format = %+v, want json_object", req.ResponseFormat)
					}
					chatReply(`{"intent":"lookup","keywords":[]}`)(w, r)
				}
			},
			wantReply: `{"intent":"lookup","keywords":[]}`,
		},
		{
			name: "no choices returned",
			serverResp: func(t *testing.T) func(w http.ResponseWriter, r *http.Request) {
				return func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					_ = json.NewEncoder(w).Encode(ChatResponse{ID: "test-id"})
				}
			},
			wantErr: true,
		},
		{
			name: "server error",
			serverResp: func(t *testing.T) func(w http.ResponseWriter, r *http.Request) {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte("internal server error"))
				}
			},
			wantErr: true,
		},
		{
			name: "malformed body",
			serverResp: func(t *testing.T) func(w http.ResponseWriter, r *http.Request) {
				return func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write([]byte("{not json"))
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp(t)))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model", time.Second)
			reply, err := client.ChatWithMessages(context.Background(), []Message{
				{Role: "system", Content: "be brief"},
				{Role: "user", Content: "Hello"},
			}, tt.params)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ChatWithMessages() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("ChatWithMessages() unexpected error: %v", err)
				return
			}

			if reply != tt.wantReply {
				t.Errorf("ChatWithMessages() reply = %v, want %v", reply, tt.wantReply)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, "k", "m", 50*time.Millisecond)
	messages := []Message{{Role: "user", Content: "slow"}}
	if _, err := client.ChatWithMessages(context.Background(), messages, ChatParams{}); err == nil {
		t.Error("ChatWithMessages() expected timeout error, got nil")
	}
}
