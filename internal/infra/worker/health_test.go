package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestHealthServer(t *testing.T) (*HealthServer, *httptest.Server) {
	t.Helper()
	var buf bytes.Buffer
	hs := NewHealthServer(":0", testLogger(&buf))

	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.handleLiveness)
	mux.HandleFunc("/health/ready", hs.handleReadiness)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return hs, server
}

func getHealth(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, body.Status
}

func TestLivenessAlwaysOK(t *testing.T) {
	_, server := newTestHealthServer(t)

	code, status := getHealth(t, server.URL+"/health")
	if code != http.StatusOK {
		t.Errorf("liveness status = %d, want 200", code)
	}
	if status != "ok" {
		t.Errorf("liveness body = %q, want 'ok'", status)
	}
}

func TestReadinessFollowsState(t *testing.T) {
	hs, server := newTestHealthServer(t)

	code, status := getHealth(t, server.URL+"/health/ready")
	if code != http.StatusServiceUnavailable {
		t.Errorf("initial readiness status = %d, want 503", code)
	}
	if status != "not ready" {
		t.Errorf("initial readiness body = %q, want 'not ready'", status)
	}

	hs.SetReady(true)
	code, status = getHealth(t, server.URL+"/health/ready")
	if code != http.StatusOK {
		t.Errorf("readiness after SetReady = %d, want 200", code)
	}
	if status != "ok" {
		t.Errorf("readiness body = %q, want 'ok'", status)
	}

	hs.SetReady(false)
	code, _ = getHealth(t, server.URL+"/health/ready")
	if code != http.StatusServiceUnavailable {
		t.Errorf("readiness after un-ready = %d, want 503", code)
	}
}

func TestStartShutsDownOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	hs := NewHealthServer("127.0.0.1:0", testLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- hs.Start(ctx)
	}()

	// Give the listener a moment to come up before cancelling.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errChan:
		if err != http.ErrServerClosed {
			t.Errorf("Start returned %v, want http.ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("health server did not shut down after context cancel")
	}
}
