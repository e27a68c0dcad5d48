package auth

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func startCallbackServer(t *testing.T) *CallbackServer {
	t.Helper()
	server, err := NewCallbackServer("127.0.0.1:0", "/callback")
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}
	server.Start()
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })
	return server
}

func hitCallback(t *testing.T, server *CallbackServer, query string) {
	t.Helper()
	go func() {
		resp, err := http.Get("http://" + server.Addr() + "/callback?" + query)
		if err != nil {
			t.Errorf("callback request: %v", err)
			return
		}
		_ = resp.Body.Close()
	}()
}

func TestCallbackServer(t *testing.T) {
	server := startCallbackServer(t)
	hitCallback(t, server, "code=test_code&state=test_state")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := server.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.Code != "test_code" || result.State != "test_state" || result.Error != "" {
		t.Errorf("result = %+v", result)
	}
}

func TestCallbackServerError(t *testing.T) {
	server := startCallbackServer(t)
	hitCallback(t, server, "error=access_denied&state=test_state")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := server.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.Error != "access_denied" {
		t.Errorf("Error = %q, want %q", result.Error, "access_denied")
	}
}

func TestCallbackServerIgnoresBareRequests(t *testing.T) {
	server := startCallbackServer(t)

	resp, err := http.Get("http://" + server.Addr() + "/callback")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := server.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want %v", err, context.DeadlineExceeded)
	}
}
