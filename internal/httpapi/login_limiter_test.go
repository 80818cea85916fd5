package httpapi

import (
	"testing"
	"time"
)

func TestLoginLimiterWindow(t *testing.T) {
	l := newLoginLimiter()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < l.max; i++ {
		if !l.Allow("login:alice", now) {
			t.Fatalf("attempt %d blocked inside the limit", i+1)
		}
	}
	if l.Allow("login:alice", now) {
		t.Fatal("attempt over the limit allowed")
	}
	if !l.Allow("ip:10.0.0.1", now) {
		t.Fatal("separate bucket blocked")
	}
	if !l.Allow("login:alice", now.Add(l.window+time.Second)) {
		t.Fatal("attempt after the window blocked")
	}
}

func TestLoginLimiterReset(t *testing.T) {
	l := newLoginLimiter()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < l.max; i++ {
		l.Allow("login:alice", now)
	}
	if l.Allow("login:alice", now) {
		t.Fatal("bucket should be full")
	}

	l.Reset("login:alice")
	if !l.Allow("login:alice", now) {
		t.Fatal("reset bucket still throttled")
	}
}
