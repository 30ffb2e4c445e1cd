package upload

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseDestination(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3 destination", "s3://spaces/broker/asninfo.jsonl", "spaces", "broker/asninfo.jsonl", false},
		{"r2 destination", "r2://spaces/asninfo.jsonl", "spaces", "asninfo.jsonl", false},
		{"nested key", "s3://bucket/a/b/c.csv", "bucket", "a/b/c.csv", false},
		{"missing key", "s3://bucket", "", "", true},
		{"missing bucket", "s3:///key", "", "", true},
		{"unknown scheme", "gs://bucket/key", "", "", true},
		{"plain path", "/tmp/file.jsonl", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := ParseDestination(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("got (%q, %q), want (%q, %q)", bucket, key, tt.bucket, tt.key)
			}
		})
	}
}

func TestCheckEnv(t *testing.T) {
	t.Run("complete environment", func(t *testing.T) {
		t.Setenv("AWS_REGION", "auto")
		t.Setenv("AWS_ACCESS_KEY_ID", "key")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
		if err := CheckEnv(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing region", func(t *testing.T) {
		t.Setenv("AWS_REGION", "")
		t.Setenv("AWS_ACCESS_KEY_ID", "key")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
		if err := CheckEnv(); err == nil {
			t.Error("expected error for missing AWS_REGION")
		}
	})
}

func TestHeartbeat(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		hit := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hit = true
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		if err := Heartbeat(context.Background(), srv.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !hit {
			t.Error("heartbeat URL was not fetched")
		}
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		if err := Heartbeat(context.Background(), srv.URL); err == nil {
			t.Fatal("expected error for 500 response")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		if err := Heartbeat(context.Background(), "http://127.0.0.1:1/nope"); err == nil {
			t.Fatal("expected error for unreachable URL")
		}
	})
}
