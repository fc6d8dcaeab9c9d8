package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("gemini returned status 429: slow down"), true},
		{errors.New("Rate Limit exceeded"), true},
		{errors.New("rate_limit_exceeded"), true},
		{errors.New("Too Many Requests"), true},
		{errors.New("daily quota exhausted"), true},
		{errors.New("RESOURCE EXHAUSTED"), true},
		{errors.New("connection refused"), false},
		{errors.New("groq returned status 500: internal error"), false},
	}
	for _, tt := range tests {
		if got := IsRateLimited(tt.err); got != tt.want {
			t.Errorf("IsRateLimited(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func completionResponse(content string) string {
	resp := map[string]any{
		"model": "test-model",
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestHTTPGeneratorGenerate(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, completionResponse("# Hello\n\nGenerated text."))
	}))
	defer srv.Close()

	g := NewHTTPGenerator(map[string]ProviderEndpoint{
		"gemini": {BaseURL: srv.URL, APIKey: "test-key", Model: "gemini-2.0-flash"},
	})
	res, err := g.Generate(context.Background(), Request{
		Provider:    "gemini",
		ContentType: "cluster",
		Topic:       "Watering Container Plants",
		Keywords:    []string{"watering", "drainage"},
		Site:        SiteContext{Name: "Urban Greenhouse", URL: "https://ug.example", Niche: "gardening"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Content != "# Hello\n\nGenerated text." {
		t.Errorf("content = %q", res.Content)
	}
	if res.Model != "test-model" {
		t.Errorf("model = %q", res.Model)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["model"] != "gemini-2.0-flash" {
		t.Errorf("request model = %v", gotBody["model"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", gotBody["messages"])
	}
	user, _ := msgs[1].(map[string]any)
	prompt, _ := user["content"].(string)
	if !strings.Contains(prompt, "Watering Container Plants") || !strings.Contains(prompt, "drainage") {
		t.Errorf("user prompt missing topic or keywords: %q", prompt)
	}
}

func TestHTTPGeneratorErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     string
		rateLimited bool
	}{
		{"provider rejects with 429", http.StatusTooManyRequests, "slow down", "429", true},
		{"server error", http.StatusInternalServerError, "boom", "500", false},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices", false},
		{"empty content", http.StatusOK, completionResponse("   "), "empty content", false},
		{"garbage body", http.StatusOK, "not json", "parse", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			g := NewHTTPGenerator(map[string]ProviderEndpoint{
				"groq": {BaseURL: srv.URL, APIKey: "k", Model: "m"},
			})
			_, err := g.Generate(context.Background(), Request{Provider: "groq", ContentType: "about", Topic: "About"})
			if err == nil {
				t.Fatal("Generate succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
			if IsRateLimited(err) != tt.rateLimited {
				t.Errorf("IsRateLimited = %v, want %v", IsRateLimited(err), tt.rateLimited)
			}
		})
	}
}

func TestHTTPGeneratorUnknownProvider(t *testing.T) {
	g := NewHTTPGenerator(nil)
	if _, err := g.Generate(context.Background(), Request{Provider: "nope"}); err == nil {
		t.Fatal("Generate accepted an unconfigured provider")
	}
}
