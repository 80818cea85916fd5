package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

type stubTransport struct {
	req    *http.Request
	body   []byte
	status int
	reply  string
}

func (t *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.req = req
	t.body, _ = io.ReadAll(req.Body)
	_ = req.Body.Close()
	status := t.status
	if status == 0 {
		status = http.StatusOK
	}
	reply := t.reply
	if reply == "" {
		reply = `{}`
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(reply)),
		Header:     make(http.Header),
	}, nil
}

func testSender(rt *stubTransport) *FCMSender {
	return &FCMSender{
		projectID:   "pid",
		tokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token"}),
		client:      &http.Client{Transport: rt},
	}
}

func TestFCMSenderSendPayload(t *testing.T) {
	rt := &stubTransport{}
	sender := testSender(rt)

	err := sender.Send(context.Background(), "fcm-token-1", map[string]string{
		"type":   "bet_invite",
		"bet_id": "b1",
		"title":  "New bet challenge",
		"body":   "alice challenged you",
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if got := rt.req.URL.String(); !strings.Contains(got, "/v1/projects/pid/messages:send") {
		t.Fatalf("unexpected url: %s", got)
	}
	if got := rt.req.Header.Get("Authorization"); got != "Bearer token" {
		t.Fatalf("unexpected authorization header: %q", got)
	}

	var payload map[string]any
	if err := json.Unmarshal(rt.body, &payload); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	message, _ := payload["message"].(map[string]any)
	if message == nil {
		t.Fatalf("missing message payload")
	}
	if message["token"] != "fcm-token-1" {
		t.Fatalf("unexpected token: %v", message["token"])
	}
	data, _ := message["data"].(map[string]any)
	if data == nil || data["type"] != "bet_invite" {
		t.Fatalf("unexpected data payload: %v", message["data"])
	}
	notification, _ := message["notification"].(map[string]any)
	if notification == nil || notification["title"] != "New bet challenge" || notification["body"] != "alice challenged you" {
		t.Fatalf("unexpected notification block: %v", message["notification"])
	}
}

func TestFCMSenderSendDataOnly(t *testing.T) {
	rt := &stubTransport{}
	sender := testSender(rt)

	if err := sender.Send(context.Background(), "fcm-token-1", map[string]string{"type": "sync"}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(rt.body, &payload); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	message, _ := payload["message"].(map[string]any)
	if _, ok := message["notification"]; ok {
		t.Fatalf("data-only message should carry no notification block: %v", message["notification"])
	}
}

func TestFCMSenderSendUnregisteredToken(t *testing.T) {
	rt := &stubTransport{
		status: http.StatusNotFound,
		reply: `{"error":{"status":"NOT_FOUND","message":"Requested entity was not found.",
			"details":[{"@type":"type.googleapis.com/google.firebase.fcm.v1.FcmError","errorCode":"UNREGISTERED"}]}}`,
	}
	sender := testSender(rt)

	err := sender.Send(context.Background(), "stale-token", map[string]string{"type": "bet_invite"})
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestFCMSenderSendServerError(t *testing.T) {
	rt := &stubTransport{
		status: http.StatusInternalServerError,
		reply:  `{"error":{"status":"INTERNAL","message":"boom"}}`,
	}
	sender := testSender(rt)

	err := sender.Send(context.Background(), "fcm-token-1", map[string]string{"type": "bet_invite"})
	if err == nil || errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want generic send error", err)
	}
}
