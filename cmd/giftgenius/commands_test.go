package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kalambet/giftgenius/internal/config"
	"github.com/kalambet/giftgenius/internal/engine"
	"github.com/kalambet/giftgenius/internal/models"
	"github.com/kalambet/giftgenius/internal/profile"
	"github.com/kalambet/giftgenius/internal/storage"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":"Introuvable","details":"not found"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestGenerateCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/generate-gifts": `{"gift_ideas":[{"id":"g1","emoji":"🎷","category":"Musique","title":"Cours de saxophone","reasoning":"• Jazz\n• Expérience","price":"€€","tags_used":["Jazz","Expérience"]}]}`,
	})

	p := profile.Default()
	p.Age = 45
	var out bytes.Buffer
	err := runGenerate(ctx, ts.client(), &out, generateOptions{
		Profile: p,
		Exclude: []string{"Vinyle"},
		Model:   "llama-3.1-8b-instant",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out.String(), "Cours de saxophone") || !strings.Contains(out.String(), "Jazz + Expérience") {
		t.Errorf("output = %q", out.String())
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q", r.Auth)
	}
	var body struct {
		Profile          profile.Profile `json:"profile"`
		AlreadySuggested []string        `json:"alreadySuggestedGiftTitles"`
		Model            string          `json:"model"`
	}
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body.Profile.Age != 45 || body.Model != "llama-3.1-8b-instant" || len(body.AlreadySuggested) != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestGenerateCommand_JSONOutput(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/generate-gifts": `{"gift_ideas":[]}`,
	})
	var out bytes.Buffer
	if err := runGenerate(ctx, ts.client(), &out, generateOptions{Profile: profile.Default(), JSON: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), `"gift_ideas": []`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestGenerateCommand_MissingProfileFlag(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"generate"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing --profile")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want it to mention 'required'", err.Error())
	}
}

func TestSuggestCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/suggest-tags": `{"suggested_tags":["Yoga","Escalade"]}`,
	})

	var out bytes.Buffer
	err := runSuggest(ctx, ts.client(), &out, suggestOptions{
		Tags:    []string{"Jazz"},
		Sliders: map[string]int{"calmeEnergie": 20},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "• Yoga") {
		t.Errorf("output = %q", out.String())
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if ignored, ok := body["ignoredTags"].([]any); !ok || len(ignored) != 0 {
		t.Errorf("ignoredTags = %v, want empty array", body["ignoredTags"])
	}
	if sliders, ok := body["sliders"].(map[string]any); !ok || sliders["calmeEnergie"] != float64(20) {
		t.Errorf("sliders = %v", body["sliders"])
	}
}

func TestModelsCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/models": `{"default":"gemini-1.5-flash","models":[{"id":"gemini-1.5-flash","name":"Flash","provider":"google"},{"id":"mixtral-8x7b-32768","name":"Mixtral","provider":"groq"}]}`,
	})

	var out bytes.Buffer
	if err := runModels(ctx, ts.client(), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "* gemini-1.5-flash") || !strings.HasPrefix(lines[1], "  mixtral") {
		t.Errorf("lines = %q", lines)
	}
}

func TestSessionCommands(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/sessions":                      `{"id":"s-1","model":"gemini-2.0-flash-exp","profile":{"age":28},"gift_ideas":[],"suggested_tags":[]}`,
		"GET /api/sessions/s-1":                   `{"id":"s-1","model":"gemini-2.0-flash-exp","profile":{"age":28,"relation":"Ami","interets":[{"id":"1","label":"Jazz","level":"expert"}]},"gift_ideas":[{"id":"g1","title":"Vinyle"}],"suggested_tags":["Yoga"]}`,
		"POST /api/sessions/s-1/generate":         `{"gift_ideas":[{"id":"g2","title":"Concert"}]}`,
		"POST /api/sessions/s-1/gifts/g1/dismiss": `{"id":"s-1","gift_ideas":[]}`,
	})
	c := ts.client()

	var out bytes.Buffer
	if err := runSessionCreate(ctx, c, &out, nil, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if strings.TrimSpace(out.String()) != "s-1" {
		t.Errorf("create output = %q", out.String())
	}

	out.Reset()
	if err := runSessionShow(ctx, c, &out, "s-1", false); err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Jazz", "Vinyle", "Yoga", "28 ans"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("show output missing %q: %q", want, out.String())
		}
	}

	out.Reset()
	if err := runSessionGenerate(ctx, c, &out, "s-1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out.String(), "Concert") {
		t.Errorf("generate output = %q", out.String())
	}

	if err := runSessionDismiss(ctx, c, "s-1", "g1", "Vinyles"); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	last := ts.requests[len(ts.requests)-1]
	if !strings.Contains(last.Body, `"blacklist":"Vinyles"`) {
		t.Errorf("dismiss body = %q", last.Body)
	}

	if err := runSessionShow(ctx, c, &out, "missing", false); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestStatusCommand_Stopped(t *testing.T) {
	c := &apiClient{
		baseURL:    "http://127.0.0.1:1",
		httpClient: http.DefaultClient,
	}
	_, err := c.get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestAPIClientAuth(t *testing.T) {
	ts := newTestServer(t, map[string]string{"GET /api/models": `{}`})

	c := ts.client()
	c.token = ""
	resp, err := c.get(ctx, "/api/models")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if ts.requests[0].Auth != "" {
		t.Errorf("auth header sent without token: %q", ts.requests[0].Auth)
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Configuration incomplète","details":"missing credential","hint":"Définissez GROQ_API_KEY"}`))
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	err = decodeJSON(resp, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"500", "missing credential", "GROQ_API_KEY"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %q, want it to contain %q", err.Error(), want)
		}
	}
}

func TestReadProfileAndSplitList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	if err := os.WriteFile(path, []byte(`{"age":33,"interets":[{"id":"1","label":"Café","level":"none"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := readProfile(path)
	if err != nil {
		t.Fatalf("readProfile: %v", err)
	}
	if p.Age != 33 || p.Interests[0].Level != profile.LevelCasual {
		t.Errorf("profile = %+v", p)
	}

	if got := splitList(" a, ,b ,"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitList = %q", got)
	}
	if splitList("") != nil {
		t.Error("splitList(\"\") should be nil")
	}
}

func TestLoadRegistry(t *testing.T) {
	reg, err := loadRegistry(config.Config{})
	if err != nil {
		t.Fatalf("loadRegistry: %v", err)
	}
	if reg.Default() != "gemini-2.0-flash-exp" {
		t.Errorf("default = %q", reg.Default())
	}

	reg, err = loadRegistry(config.Config{Models: config.ModelsConfig{Default: "mixtral-8x7b-32768"}})
	if err != nil || reg.Default() != "mixtral-8x7b-32768" {
		t.Errorf("default = %v, err = %v", reg, err)
	}

	if _, err := loadRegistry(config.Config{Models: config.ModelsConfig{Default: "nope"}}); err == nil {
		t.Error("expected error for unknown default model")
	}

	path := filepath.Join(t.TempDir(), "models.yaml")
	yaml := "default: llama3.2\nmodels:\n  - id: llama3.2\n    name: Llama local\n    provider: ollama\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err = loadRegistry(config.Config{Models: config.ModelsConfig{RegistryFile: path}})
	if err != nil {
		t.Fatalf("loadRegistry file: %v", err)
	}
	if got := localModels(reg); len(got) != 1 || got[0] != "llama3.2" {
		t.Errorf("localModels = %v", got)
	}
}

func TestPIDFile(t *testing.T) {
	path := pidFilePath(t.TempDir())
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	pid, err := readPIDFile(path)
	if err != nil || pid != os.Getpid() {
		t.Errorf("pid = %d, err = %v", pid, err)
	}
	removePIDFile(path)
	if _, err := readPIDFile(path); err == nil {
		t.Error("PID file still present")
	}
}

func TestServerURL(t *testing.T) {
	cfg := config.Config{Server: config.ServerConfig{Host: "0.0.0.0", Port: 3000}}
	if got := serverURL(cfg); got != "http://127.0.0.1:3000" {
		t.Errorf("serverURL = %q", got)
	}
}

type fixedEngine struct{ out string }

func (e fixedEngine) Generate(context.Context, engine.Request) (string, error) { return e.out, nil }

type fixedSource struct{ eng engine.Engine }

func (s fixedSource) For(context.Context, models.Provider) (engine.Engine, error) { return s.eng, nil }

// TestAppEndToEnd drives the CLI client against the fully wired server.
func TestAppEndToEnd(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	defer store.Close()

	a, err := newApp(config.Config{}, store, fixedSource{eng: fixedEngine{
		out: `{"gift_ideas":[{"emoji":"☕","category":"Gastronomie","title":"Abonnement café de spécialité","reasoning":"• Café","price":"€€","tags_used":["Café","Matin"]}]}`,
	}})
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	srv := httptest.NewServer(a.handler)
	defer srv.Close()
	c := &apiClient{baseURL: srv.URL, httpClient: srv.Client()}

	var out bytes.Buffer
	if err := runGenerate(ctx, c, &out, generateOptions{Profile: profile.Default()}); err != nil {
		t.Fatalf("runGenerate: %v", err)
	}
	if !strings.Contains(out.String(), "Abonnement café de spécialité") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := runSessionCreate(ctx, c, &out, nil, ""); err != nil {
		t.Fatalf("runSessionCreate: %v", err)
	}
	id := strings.TrimSpace(out.String())
	if err := runSessionGenerate(ctx, c, &out, id); err != nil {
		t.Fatalf("runSessionGenerate: %v", err)
	}
	v, err := a.sessions.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(v.GiftIdeas) != 1 {
		t.Errorf("stored ideas = %d, want 1", len(v.GiftIdeas))
	}
}
