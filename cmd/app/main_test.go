package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"storefront-bff/internal/application/config"
	"strings"
	"testing"
	"time"
)

func TestMainApplication(t *testing.T) {
	t.Run("test gateway assembly", func(t *testing.T) {
		tmpDir := t.TempDir()

		inventory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
		}))
		defer inventory.Close()

		counts := func(n string) *httptest.Server {
			return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"failedCount":` + n + `}`))
			}))
		}
		order, payment, user := counts("2"), counts("4"), counts("0")
		defer order.Close()
		defer payment.Close()
		defer user.Close()

		settingsContent := `server:
  listen: "127.0.0.1:0"
proxy:
  timeout: 2s
  fanout_timeout: 1s
  rate_limit:
    rps: 100
log:
  level: debug
  format: json`

		settingsFile := filepath.Join(tmpDir, "settings.yml")
		if err := os.WriteFile(settingsFile, []byte(settingsContent), 0644); err != nil {
			t.Fatalf("Failed to create settings file: %v", err)
		}

		t.Setenv("ORDER_SERVICE_URL", order.URL)
		t.Setenv("INVENTORY_SERVICE_URL", inventory.URL+"/")
		t.Setenv("PAYMENT_SERVICE_URL", payment.URL)
		t.Setenv("USER_SERVICE_URL", user.URL)
		t.Setenv("BFF_SETTINGS", settingsFile)

		env, err := config.LoadEnvironment("")
		if err != nil {
			t.Fatalf("Failed to load environment: %v", err)
		}
		settings, err := config.LoadSettings(env.SettingsPath)
		if err != nil {
			t.Fatalf("Failed to load settings: %v", err)
		}

		var logs bytes.Buffer
		logger := config.NewLogger(settings.Log, &logs)

		handler, limiter, err := newHandler(logger, env, settings)
		if err != nil {
			t.Fatalf("Failed to build handler: %v", err)
		}
		if limiter == nil {
			t.Error("Expected rate limiter when rps is set")
		}

		gateway := httptest.NewServer(handler)
		defer gateway.Close()

		resp, err := http.Get(gateway.URL + "/api/products/42")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}
		if string(body) != `{"path":"/api/products/42"}` {
			t.Errorf("Unexpected body %s", body)
		}

		resp, err = http.Get(gateway.URL + "/api/admin/failed-events/count")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		body, _ = io.ReadAll(resp.Body)
		resp.Body.Close()

		if !strings.Contains(string(body), `"order":{"failedCount":2}`) || !strings.Contains(string(body), `"payment":{"failedCount":4}`) {
			t.Errorf("Unexpected counts %s", body)
		}

		if !strings.Contains(logs.String(), `"msg":"proxy"`) {
			t.Errorf("Expected proxy log line, got %s", logs.String())
		}
	})

	t.Run("test invalid backend address", func(t *testing.T) {
		t.Setenv("ORDER_SERVICE_URL", "ftp://order")
		t.Setenv("INVENTORY_SERVICE_URL", "http://inventory")
		t.Setenv("PAYMENT_SERVICE_URL", "http://payment")
		t.Setenv("USER_SERVICE_URL", "http://user")

		env, err := config.LoadEnvironment("")
		if err != nil {
			t.Fatalf("Failed to load environment: %v", err)
		}
		settings, err := config.LoadSettings(filepath.Join(t.TempDir(), "absent.yml"))
		if err != nil {
			t.Fatalf("Failed to load settings: %v", err)
		}

		if _, _, err := newHandler(nil, env, settings); err == nil {
			t.Error("Expected error for non-http backend address")
		}
	})

	t.Run("test graceful shutdown", func(t *testing.T) {
		t.Setenv("ORDER_SERVICE_URL", "http://order")
		t.Setenv("INVENTORY_SERVICE_URL", "http://inventory")
		t.Setenv("PAYMENT_SERVICE_URL", "http://payment")
		t.Setenv("USER_SERVICE_URL", "http://user")

		env, err := config.LoadEnvironment("")
		if err != nil {
			t.Fatalf("Failed to load environment: %v", err)
		}
		settings, err := config.LoadSettings(filepath.Join(t.TempDir(), "absent.yml"))
		if err != nil {
			t.Fatalf("Failed to load settings: %v", err)
		}
		settings.Server.Listen = "127.0.0.1:0"

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- run(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), env, settings)
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Expected clean shutdown, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Server did not shut down")
		}
	})
}
