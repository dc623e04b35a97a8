package interop

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/interopctl/internal/testutil/testlog"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ServerURL = serverURL
	cfg.ModuleName = "go-module"
	cfg.AutoRegister = false
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	testlog.Start(t)
	if _, err := New(Config{ModuleName: "m"}); !errors.Is(err, ErrServerURLRequired) {
		t.Fatalf("expected server url error, got %v", err)
	}
	if _, err := New(Config{ServerURL: "http://localhost:4000"}); !errors.Is(err, ErrModuleNameRequired) {
		t.Fatalf("expected module name error, got %v", err)
	}
}

func TestCallReturnsResult(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rpc" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Target string          `json:"target"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode rpc body: %v", err)
		}
		if body.Target != "go-module" || body.Method != "saveData" {
			t.Errorf("unexpected rpc body: %+v", body)
		}
		_, _ = w.Write([]byte(`{"result":{"id":1}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result, err := client.Call(context.Background(), "go-module", "saveData", map[string]any{
		"table": "users",
		"data":  map[string]string{"name": "John", "email": "john@example.com"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	var got struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(result, &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("unexpected result: %s", result)
	}
}

func TestCallSurfacesRemoteFailure(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "module exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Call(context.Background(), "go-module", "saveData", nil)
	var remote *RemoteCallError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteCallError, got %v", err)
	}
	if remote.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", remote.Status)
	}
}

func TestCallSurfacesTransportFailure(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Call(context.Background(), "go-module", "ping", nil)
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestSendReturnsMessageID(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/queue" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Priority int `json:"priority"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Priority != 7 {
			t.Errorf("priority not passed through: %d", body.Priority)
		}
		_, _ = w.Write([]byte(`{"messageId":"msg_42"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	id, err := client.Send(context.Background(), "go-module", "saveData", nil, 7)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "msg_42" {
		t.Fatalf("unexpected message id: %q", id)
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	testlog.Start(t)
	var registered, unregistered bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/register":
			var body struct {
				Name      string   `json:"name"`
				Language  string   `json:"language"`
				Endpoints []string `json:"endpoints"`
				Port      *int     `json:"port"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode register body: %v", err)
			}
			if body.Name != "go-module" || body.Language != "go" {
				t.Errorf("unexpected register body: %+v", body)
			}
			if len(body.Endpoints) != 1 || body.Endpoints[0] != "rpc" {
				t.Errorf("unexpected endpoints: %v", body.Endpoints)
			}
			registered = true
			_, _ = w.Write([]byte(`{"message":"registered go-module"}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/register/go-module":
			unregistered = true
			_, _ = w.Write([]byte(`{"message":"unregistered go-module"}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Register(context.Background()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := client.Unregister(context.Background()); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if !registered || !unregistered {
		t.Fatalf("broker not hit: registered=%v unregistered=%v", registered, unregistered)
	}
}

func TestRegisterFailureIsTyped(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "name taken", http.StatusConflict)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.Register(context.Background())
	var reg *RegistrationError
	if !errors.As(err, &reg) {
		t.Fatalf("expected RegistrationError, got %v", err)
	}
	var remote *RemoteCallError
	if !errors.As(err, &remote) || remote.Status != http.StatusConflict {
		t.Fatalf("expected wrapped status, got %v", err)
	}
}

func TestQueueAndProcessQueue(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/queue":
			_, _ = w.Write([]byte(`{"queue":[{"id":"msg_1","target":"go-module","method":"saveData","params":{},"priority":2,"status":"queued"}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/queue/process":
			var body struct {
				Limit int `json:"limit"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Limit != 5 {
				t.Errorf("unexpected limit: %d", body.Limit)
			}
			_, _ = w.Write([]byte(`{"processed":1,"remaining":0,"results":[{"ok":true}]}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	msgs, err := client.Queue(context.Background())
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "msg_1" || msgs[0].Priority != 2 {
		t.Fatalf("unexpected queue: %+v", msgs)
	}

	result, err := client.ProcessQueue(context.Background(), 5)
	if err != nil {
		t.Fatalf("process queue: %v", err)
	}
	if result.Processed != 1 || result.Remaining != 0 || len(result.Results) != 1 {
		t.Fatalf("unexpected process result: %+v", result)
	}
}

func TestModulesSnapshot(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/modules" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"modules":[{"name":"ts-module","language":"typescript","endpoints":["rpc"],"port":3000,"registered_at":"2026-08-30T10:00:00Z","last_seen":"2026-08-30T10:05:00Z"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	mods, err := client.Modules(context.Background())
	if err != nil {
		t.Fatalf("modules: %v", err)
	}
	if len(mods) != 1 || mods[0].Name != "ts-module" || mods[0].Language != "typescript" {
		t.Fatalf("unexpected modules: %+v", mods)
	}
	if mods[0].Port == nil || *mods[0].Port != 3000 {
		t.Fatalf("unexpected port: %+v", mods[0].Port)
	}
}

func TestHealthPassesPayloadThrough(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","uptime":12.5}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	payload, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	var got struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if got.Status != "ok" {
		t.Fatalf("unexpected health payload: %s", payload)
	}
}

func TestCallDuplexWithoutOpenFails(t *testing.T) {
	testlog.Start(t)
	client := newTestClient(t, "http://127.0.0.1:0")
	if _, err := client.CallDuplex(context.Background(), "go-module", "ping", nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected not-connected, got %v", err)
	}
	if client.InFlight() != 0 {
		t.Fatalf("table should stay empty, size=%d", client.InFlight())
	}
}
