package antfund

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/C-Plusone/fund-app/internal/source"
)

func TestNew(t *testing.T) {
	s := New("https://www.fund123.cn")

	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.client == nil {
		t.Error("client is nil")
	}
	if got := s.Name(); got != SourceName {
		t.Errorf("Name() = %q, want %q", got, SourceName)
	}
}

func TestInfoSource_Fetch_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/fund/queryFundInfo" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/api/fund/queryFundInfo")
		}
		if got := r.URL.Query().Get("fundCode"); got != "000216" {
			t.Errorf("fundCode = %q, want %q", got, "000216")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"success": true,
			"result": {
				"fundName": "华安黄金易ETF联接A",
				"netValue": "3.4680",
				"estimateValue": "3.4956",
				"estimateRate": "0.80",
				"estimateTime": "2024-01-15 14:30"
			}
		}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	s := New(server.URL)

	snapshot, err := s.Fetch(context.Background(), "000216")
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	if snapshot.Name != "华安黄金易ETF联接A" {
		t.Errorf("Name = %q, want %q", snapshot.Name, "华安黄金易ETF联接A")
	}
	if snapshot.NAV != 3.4680 {
		t.Errorf("NAV = %v, want 3.4680", snapshot.NAV)
	}
	if snapshot.Estimate != 3.4956 {
		t.Errorf("Estimate = %v, want 3.4956", snapshot.Estimate)
	}
	if snapshot.EstimateChange != 0.80 {
		t.Errorf("EstimateChange = %v, want 0.80", snapshot.EstimateChange)
	}
	if snapshot.EstimateTime != "2024-01-15 14:30" {
		t.Errorf("EstimateTime = %q, want %q", snapshot.EstimateTime, "2024-01-15 14:30")
	}
	if snapshot.Source != SourceName {
		t.Errorf("Source = %q, want %q", snapshot.Source, SourceName)
	}
}

func TestInfoSource_Fetch_RefusedInBand(t *testing.T) {
	// The endpoint reports refusals inside an HTTP 200
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success": false, "message": "invalid fund code"}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	s := New(server.URL)

	_, err := s.Fetch(context.Background(), "badcode")
	if err == nil {
		t.Fatal("Fetch() expected error for in-band refusal, got nil")
	}

	var srcErr *source.Error
	if !errors.As(err, &srcErr) {
		t.Fatalf("Fetch() error = %v, want *source.Error", err)
	}
	if srcErr.Kind != source.KindUpstream {
		t.Errorf("Kind = %s, want %s", srcErr.Kind, source.KindUpstream)
	}
}

func TestInfoSource_Fetch_MissingResult(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success": true, "result": null}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	s := New(server.URL)

	_, err := s.Fetch(context.Background(), "000216")
	if err == nil {
		t.Fatal("Fetch() expected error for missing result, got nil")
	}

	var srcErr *source.Error
	if !errors.As(err, &srcErr) {
		t.Fatalf("Fetch() error = %v, want *source.Error", err)
	}
	if srcErr.Kind != source.KindUpstream {
		t.Errorf("Kind = %s, want %s", srcErr.Kind, source.KindUpstream)
	}
}

func TestInfoSource_Fetch_BadJSON(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<html>maintenance</html>`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	s := New(server.URL)

	_, err := s.Fetch(context.Background(), "000216")
	if err == nil {
		t.Fatal("Fetch() expected error for bad JSON, got nil")
	}

	var srcErr *source.Error
	if !errors.As(err, &srcErr) {
		t.Fatalf("Fetch() error = %v, want *source.Error", err)
	}
	if srcErr.Kind != source.KindMalformed {
		t.Errorf("Kind = %s, want %s", srcErr.Kind, source.KindMalformed)
	}
}

func TestInfoSource_Fetch_UpstreamError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	s := New(server.URL)

	_, err := s.Fetch(context.Background(), "000216")
	if err == nil {
		t.Fatal("Fetch() expected error for HTTP 403, got nil")
	}

	var srcErr *source.Error
	if !errors.As(err, &srcErr) {
		t.Fatalf("Fetch() error = %v, want *source.Error", err)
	}
	if srcErr.Kind != source.KindUpstream {
		t.Errorf("Kind = %s, want %s", srcErr.Kind, source.KindUpstream)
	}
	if srcErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want %d", srcErr.StatusCode, http.StatusForbidden)
	}
}
