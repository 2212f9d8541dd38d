// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/config"
	"github.com/tomtom215/pedalbridge/internal/health"
	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/plugins"
	"github.com/tomtom215/pedalbridge/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

type fakeHealth struct {
	report health.Report
}

func (f fakeHealth) Peek() health.Report { return f.report }

type fakeInstances struct {
	list []plugins.Instance
}

func (f fakeInstances) ListInstances() []plugins.Instance { return f.list }

func (f fakeInstances) GetPluginInfo(id string) (plugins.InstanceInfo, error) {
	for _, inst := range f.list {
		if inst.InstanceID == id {
			return plugins.InstanceInfo{Instance: inst}, nil
		}
	}
	return plugins.InstanceInfo{}, bridgeerr.InstanceNotFound(id)
}

func opsConfig() config.OpsConfig {
	return config.OpsConfig{Enabled: true, CORSOrigins: []string{"http://ops.local"}, RateLimit: 0}
}

func newTestRouter(status string, feedback http.Handler) http.Handler {
	h := fakeHealth{report: health.Report{Status: status}}
	inst := fakeInstances{list: []plugins.Instance{
		{InstanceID: "a", HostInstance: 0, URI: "urn:test:gain"},
		{InstanceID: "b", HostInstance: 1, URI: "urn:test:fuzz"},
	}}
	return NewRouter(opsConfig(), h, inst, feedback).Handler()
}

func TestHealthz_StatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		want   int
	}{
		{health.StatusStarting, http.StatusServiceUnavailable},
		{health.StatusHealthy, http.StatusOK},
		{health.StatusDegraded, http.StatusOK},
		{health.StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			newTestRouter(tt.status, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d", rec.Code, tt.want)
			}
			var report health.Report
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatal(err)
			}
			if report.Status != tt.status {
				t.Errorf("status = %q", report.Status)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("missing security headers")
			}
		})
	}
}

func TestInstances(t *testing.T) {
	t.Parallel()
	router := newTestRouter(health.StatusHealthy, nil)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/instances", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d", rec.Code)
		}
		var resp struct {
			Success bool               `json:"success"`
			Data    []plugins.Instance `json:"data"`
			Meta    APIMeta            `json:"meta"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if !resp.Success || len(resp.Data) != 2 || resp.Meta.Count == nil || *resp.Meta.Count != 2 {
			t.Errorf("resp = %+v", resp)
		}
		if resp.Meta.RequestID != rec.Header().Get("X-Request-ID") {
			t.Errorf("meta request id %q != header %q", resp.Meta.RequestID, rec.Header().Get("X-Request-ID"))
		}
	})

	t.Run("one", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/instances/b", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "urn:test:fuzz") {
			t.Errorf("code = %d body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/instances/zzz", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("code = %d", rec.Code)
		}
		var resp APIResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Success || resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
			t.Errorf("resp = %+v", resp)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newTestRouter(health.StatusHealthy, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "pedalbridge_") {
		t.Errorf("code = %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()
	router := newTestRouter(health.StatusHealthy, nil)

	tests := []struct {
		origin string
		want   string
	}{
		{"http://ops.local", "http://ops.local"},
		{"http://evil.example", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: allow-origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	cfg := opsConfig()
	cfg.RateLimit = 2
	router := NewRouter(cfg, fakeHealth{report: health.Report{Status: health.StatusHealthy}}, fakeInstances{}, nil).Handler()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "192.0.2.7:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestFeedbackTap_UpgradesThroughMiddleware(t *testing.T) {
	t.Parallel()

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Serve(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	srv := httptest.NewServer(newTestRouter(health.StatusHealthy, websocket.NewHandler(hub, []string{"*"})))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/feedback"
	conn, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.BroadcastRaw([]byte(`{"type":"log","data":"hello"}`))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg websocket.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "log" {
		t.Errorf("type = %q", msg.Type)
	}
}
