package server

import (
	"net/http"
	"sync"
	"testing"

	"github.com/lawnchairsociety/mysticalmap/internal/config"
)

func TestConnLimiter_PerIPLimit(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 2, MaxTotal: 100})

	for i := 0; i < 2; i++ {
		if !limiter.TryAcquire("192.168.1.1") {
			t.Fatalf("connection %d should be allowed", i+1)
		}
	}
	if limiter.TryAcquire("192.168.1.1") {
		t.Error("third connection from same IP should be rejected")
	}
	if !limiter.TryAcquire("192.168.1.2") {
		t.Error("connection from different IP should be allowed")
	}

	limiter.Release("192.168.1.1")
	if !limiter.TryAcquire("192.168.1.1") {
		t.Error("connection should be allowed after release")
	}
}

func TestConnLimiter_TotalLimit(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 10, MaxTotal: 3})

	for _, ip := range []string{"192.168.1.1", "192.168.1.2", "192.168.1.3"} {
		if !limiter.TryAcquire(ip) {
			t.Fatalf("connection from %s should be allowed", ip)
		}
	}
	if limiter.TryAcquire("192.168.1.4") {
		t.Error("fourth connection should be rejected due to total limit")
	}

	limiter.Release("192.168.1.1")
	if !limiter.TryAcquire("192.168.1.4") {
		t.Error("connection should be allowed after release")
	}
}

func TestConnLimiter_Unlimited(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{})

	for i := 0; i < 100; i++ {
		if !limiter.TryAcquire("192.168.1.1") {
			t.Fatalf("connection %d should be allowed when unlimited", i)
		}
	}
}

func TestConnLimiter_ReleaseUnknownIP(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 1, MaxTotal: 1})

	limiter.TryAcquire("192.168.1.1")
	limiter.Release("10.0.0.9")

	if count := limiter.GetIPCount("192.168.1.1"); count != 1 {
		t.Errorf("expected count 1 for 192.168.1.1, got %d", count)
	}
	if count := limiter.GetIPCount("10.0.0.9"); count != 0 {
		t.Errorf("expected count 0 for unknown IP, got %d", count)
	}
}

func TestConnLimiter_Stats(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 10, MaxTotal: 100})

	limiter.TryAcquire("192.168.1.1")
	limiter.TryAcquire("192.168.1.1")
	limiter.TryAcquire("192.168.1.2")

	total, uniqueIPs := limiter.GetStats()
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if uniqueIPs != 2 {
		t.Errorf("expected 2 unique IPs, got %d", uniqueIPs)
	}
	if count := limiter.GetIPCount("192.168.1.1"); count != 2 {
		t.Errorf("expected count 2 for IP 192.168.1.1, got %d", count)
	}

	limiter.Release("192.168.1.1")
	limiter.Release("192.168.1.1")
	if _, uniqueIPs := limiter.GetStats(); uniqueIPs != 1 {
		t.Errorf("expected released IP to be forgotten, got %d unique IPs", uniqueIPs)
	}
}

func TestConnLimiter_Concurrent(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 0, MaxTotal: 10})

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.TryAcquire("192.168.1.1") {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 10 {
		t.Errorf("expected exactly 10 acquisitions, got %d", acquired)
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"192.168.1.1:12345", "192.168.1.1"},
		{"[::1]:12345", "::1"},
		{"localhost:4000", "localhost"},
		{"192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		if result := extractIP(tt.input); result != tt.expected {
			t.Errorf("extractIP(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestGetRealIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		expected   string
	}{
		{
			name:       "X-Forwarded-For single IP",
			xff:        "203.0.113.50",
			remoteAddr: "10.0.0.1:12345",
			expected:   "203.0.113.50",
		},
		{
			name:       "X-Forwarded-For multiple IPs",
			xff:        "203.0.113.50, 70.41.3.18, 150.172.238.178",
			remoteAddr: "10.0.0.1:12345",
			expected:   "203.0.113.50",
		},
		{
			name:       "X-Real-IP",
			xri:        "203.0.113.50",
			remoteAddr: "10.0.0.1:12345",
			expected:   "203.0.113.50",
		},
		{
			name:       "X-Forwarded-For takes precedence over X-Real-IP",
			xff:        "203.0.113.50",
			xri:        "198.51.100.25",
			remoteAddr: "10.0.0.1:12345",
			expected:   "203.0.113.50",
		},
		{
			name:       "No headers uses RemoteAddr",
			remoteAddr: "192.168.1.100:54321",
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{RemoteAddr: tt.remoteAddr, Header: make(http.Header)}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			if result := getRealIP(req); result != tt.expected {
				t.Errorf("getRealIP() = %q, want %q", result, tt.expected)
			}
		})
	}
}
