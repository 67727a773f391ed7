package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func apiConfig(endpoint string, dim int) Config {
	cfg := DefaultConfig().With(ExternalAPI, dim)
	cfg.APIKey = "secret"
	cfg.APIEndpoint = endpoint
	return cfg
}

func TestExternalAPI_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		var req apiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Text != "hello" || req.Dimensions != 3 || !req.Normalize {
			t.Errorf("request body = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(apiResponse{Embedding: []float32{0.1, 0.2, 0.3}, Status: "ok"})
	}))
	defer srv.Close()

	got, err := NewEngine().Generate(context.Background(), "hello", apiConfig(srv.URL, 3))
	if err != nil {
		t.Fatal(err)
	}
	approxEqual(t, got, []float32{0.1, 0.2, 0.3}, 0)
}

func TestExternalAPI_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			},
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests || se.Body != "quota exceeded" {
					t.Errorf("err = %v, want StatusError 429", err)
				}
				if !IsUpstream(err) {
					t.Error("status errors are upstream failures")
				}
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			check: func(t *testing.T, err error) {
				var se *SchemaError
				if !errors.As(err, &se) {
					t.Errorf("err = %v, want SchemaError", err)
				}
				if IsUpstream(err) {
					t.Error("schema errors are not upstream failures")
				}
			},
		},
		{
			name: "wrong dimension",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"embedding":[1,2]}`))
			},
			check: func(t *testing.T, err error) {
				var se *SchemaError
				if !errors.As(err, &se) || se.Expected != 3 || se.Actual != 2 {
					t.Errorf("err = %v, want SchemaError 3/2", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewEngine().Generate(context.Background(), "hello", apiConfig(srv.URL, 3))
			tt.check(t, err)
		})
	}
}

func TestExternalAPI_Validation(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	cfg := apiConfig("", 3)
	if _, err := e.Generate(ctx, "hello", cfg); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("missing endpoint err = %v", err)
	}
	cfg = apiConfig("http://localhost", 3)
	cfg.APIKey = ""
	if _, err := e.Generate(ctx, "hello", cfg); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("missing key err = %v", err)
	}
	if _, err := e.Generate(ctx, " \n ", apiConfig("http://localhost", 3)); !errors.Is(err, ErrEmptyText) {
		t.Errorf("empty text err = %v", err)
	}
}

func TestExternalAPI_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewEngine().Generate(context.Background(), "hello", apiConfig(url, 3))
	var te *TransportError
	if !errors.As(err, &te) || te.Endpoint != url {
		t.Errorf("err = %v, want TransportError", err)
	}
}

func TestExternalAPI_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := apiConfig(srv.URL, 3)
	cfg.Timeout = 50 * time.Millisecond
	start := time.Now()
	_, err := NewEngine().Generate(context.Background(), "hello", cfg)
	if !IsUpstream(err) {
		t.Errorf("err = %v, want transport error", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("request was not bounded by the timeout")
	}
}

func TestExternalAPI_CacheAndRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"embedding":[1,0]}`))
	}))
	defer srv.Close()

	e := NewEngine(WithCacheSize(4), WithRateLimit(1000, 1), WithHTTPClient(srv.Client()))
	cfg := apiConfig(srv.URL, 2)
	for i := 0; i < 3; i++ {
		if _, err := e.Generate(context.Background(), "cached", cfg); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := e.Generate(context.Background(), "other", cfg); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2", hits.Load())
	}
}

func TestExternalAPI_NoRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _ = NewEngine().Generate(context.Background(), "x", apiConfig(srv.URL, 2))
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
}
