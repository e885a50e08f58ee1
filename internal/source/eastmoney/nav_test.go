package eastmoney

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/C-Plusone/fund-app/internal/source"
)

func TestNewNAVSource(t *testing.T) {
	s := NewNAVSource("https://api.fund.eastmoney.com")

	if s == nil {
		t.Fatal("NewNAVSource() returned nil")
	}
	if s.client == nil {
		t.Error("client is nil")
	}
	if got := s.Name(); got != NAVSourceName {
		t.Errorf("Name() = %q, want %q", got, NAVSourceName)
	}
}

func TestNAVSource_Fetch_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/f10/lsjz" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/f10/lsjz")
		}
		if got := r.URL.Query().Get("fundCode"); got != "000216" {
			t.Errorf("fundCode = %q, want %q", got, "000216")
		}
		if got := r.URL.Query().Get("pageSize"); got != "1" {
			t.Errorf("pageSize = %q, want %q", got, "1")
		}
		if got := r.URL.Query().Get("callback"); got != "jQuery" {
			t.Errorf("callback = %q, want %q", got, "jQuery")
		}

		w.Header().Set("Content-Type", "text/javascript")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`jQuery({"Data":{"LSJZList":[{"FSRQ":"2024-01-15","DWJZ":"1.2340","LJJZ":"3.1080","JZZZL":"0.52"}]},"ErrCode":0})`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	s := NewNAVSource(server.URL)

	snapshot, err := s.Fetch(context.Background(), "000216")
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	if snapshot.NAV != 1.2340 {
		t.Errorf("NAV = %v, want 1.2340", snapshot.NAV)
	}
	if snapshot.NAVDate != "2024-01-15" {
		t.Errorf("NAVDate = %q, want %q", snapshot.NAVDate, "2024-01-15")
	}
	if snapshot.NAVChange != 0.52 {
		t.Errorf("NAVChange = %v, want 0.52", snapshot.NAVChange)
	}
	if snapshot.Name != "" || snapshot.Estimate != 0 {
		t.Errorf("unexpected identity or estimate data: %+v", snapshot)
	}
	if snapshot.Source != NAVSourceName {
		t.Errorf("Source = %q, want %q", snapshot.Source, NAVSourceName)
	}
}

func TestNAVSource_Fetch_EmptyHistory(t *testing.T) {
	// A brand-new fund has no published rows yet; that is an answer, not an
	// error
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`jQuery({"Data":{"LSJZList":[]},"ErrCode":0})`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	s := NewNAVSource(server.URL)

	snapshot, err := s.Fetch(context.Background(), "999999")
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	if !snapshot.Empty() {
		t.Errorf("snapshot = %+v, want empty", snapshot)
	}
	if snapshot.Source != NAVSourceName {
		t.Errorf("Source = %q, want %q", snapshot.Source, NAVSourceName)
	}
}

func TestNAVSource_Fetch_EmptyChangeForMoneyFunds(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`jQuery({"Data":{"LSJZList":[{"FSRQ":"2024-01-15","DWJZ":"1.0000","JZZZL":""}]}})`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	s := NewNAVSource(server.URL)

	snapshot, err := s.Fetch(context.Background(), "000198")
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	if snapshot.NAV != 1.0 {
		t.Errorf("NAV = %v, want 1.0", snapshot.NAV)
	}
	if snapshot.NAVChange != 0 {
		t.Errorf("NAVChange = %v, want 0", snapshot.NAVChange)
	}
}

func TestNAVSource_Fetch_DatedRowWithoutLevel(t *testing.T) {
	// A row can carry a date before its DWJZ is filled in; the snapshot keeps
	// the date and reports no level
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`jQuery({"Data":{"LSJZList":[{"FSRQ":"2024-01-15","DWJZ":"","JZZZL":""}]}})`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	s := NewNAVSource(server.URL)

	snapshot, err := s.Fetch(context.Background(), "000216")
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	if snapshot.NAV != 0 {
		t.Errorf("NAV = %v, want 0", snapshot.NAV)
	}
	if snapshot.NAVDate != "2024-01-15" {
		t.Errorf("NAVDate = %q, want %q", snapshot.NAVDate, "2024-01-15")
	}
	if snapshot.Empty() {
		t.Error("Empty() = true, want false for a dated row")
	}
}

func TestNAVSource_Fetch_NotACallback(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"Data":null}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	s := NewNAVSource(server.URL)

	_, err := s.Fetch(context.Background(), "000216")
	if err == nil {
		t.Fatal("Fetch() expected error for non-callback body, got nil")
	}

	var srcErr *source.Error
	if !errors.As(err, &srcErr) {
		t.Fatalf("Fetch() error = %v, want *source.Error", err)
	}
	if srcErr.Kind != source.KindMalformed {
		t.Errorf("Kind = %s, want %s", srcErr.Kind, source.KindMalformed)
	}
}

func TestNAVSource_Fetch_UpstreamError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	s := NewNAVSource(server.URL)

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
