package auth

import "testing"

func TestCookieCodecRoundTrip(t *testing.T) {
	codec := NewCookieCodec([]byte("0123456789abcdef0123456789abcdef"))

	encoded := codec.EncodeSessionID("sess-123")
	if encoded == "sess-123" {
		t.Fatal("expected signed cookie value to differ from session id")
	}

	id, ok := codec.DecodeSessionID(encoded)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if id != "sess-123" {
		t.Fatalf("decoded id: got %q", id)
	}
}

func TestCookieCodecRejectsTampering(t *testing.T) {
	codec := NewCookieCodec([]byte("0123456789abcdef0123456789abcdef"))

	encoded := codec.EncodeSessionID("sess-123")
	tampered := "sess-456" + encoded[len("sess-123"):]
	if _, ok := codec.DecodeSessionID(tampered); ok {
		t.Fatal("expected tampered cookie to be rejected")
	}

	if _, ok := codec.DecodeSessionID("no-signature"); ok {
		t.Fatal("expected unsigned cookie to be rejected")
	}
}

func TestCookieCodecRejectsWrongSecret(t *testing.T) {
	a := NewCookieCodec([]byte("0123456789abcdef0123456789abcdef"))
	b := NewCookieCodec([]byte("fedcba9876543210fedcba9876543210"))

	encoded := a.EncodeSessionID("sess-123")
	if _, ok := b.DecodeSessionID(encoded); ok {
		t.Fatal("expected cookie signed with different secret to be rejected")
	}
}

func TestCookieCodecEmptySecretPassthrough(t *testing.T) {
	codec := NewCookieCodec(nil)

	if got := codec.EncodeSessionID("sess-123"); got != "sess-123" {
		t.Fatalf("passthrough encode: got %q", got)
	}
	if id, ok := codec.DecodeSessionID("sess-123"); !ok || id != "sess-123" {
		t.Fatalf("passthrough decode: got %q, %v", id, ok)
	}
	if _, ok := codec.DecodeSessionID(""); ok {
		t.Fatal("empty cookie value must not decode")
	}
}
