package email

import (
	"context"
	"net/mail"
	"strings"
	"testing"
	"time"
)

func TestNewSMTPSenderValidation(t *testing.T) {
	if _, err := NewSMTPSender("", 587, "", "", "no-reply@csi.local", "", false); err == nil {
		t.Fatalf("expected error for empty host")
	}
	if _, err := NewSMTPSender("smtp.local", 587, "", "", " ", "", false); err == nil {
		t.Fatalf("expected error for empty from")
	}
	if _, err := NewSMTPSender("smtp.local", 587, "", "", "not-an-address", "", false); err == nil {
		t.Fatalf("expected error for malformed from")
	}
	sender, err := NewSMTPSender("smtp.local", 0, "", "", "no-reply@csi.local", "CSI", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.addr != "smtp.local:587" {
		t.Fatalf("expected default port 587, got %q", sender.addr)
	}
	if sender.auth != nil {
		t.Fatalf("expected no auth without username")
	}
	if sender.from.Name != "CSI" {
		t.Fatalf("expected from name CSI, got %q", sender.from.Name)
	}
}

func TestResetCodeMessage(t *testing.T) {
	msg := resetCodeMessage{
		from:      mail.Address{Name: "CSI", Address: "no-reply@csi.local"},
		to:        mail.Address{Address: "ana@example.com"},
		code:      "123456",
		expiresAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		sentAt:    time.Date(2026, 3, 1, 11, 45, 0, 0, time.UTC),
		messageID: "abc@smtp.local",
	}
	raw := string(msg.bytes())

	for _, want := range []string{
		`From: "CSI" <no-reply@csi.local>`,
		"To: <ana@example.com>",
		"Subject: =?utf-8?q?",
		"Date: Sun, 01 Mar 2026 11:45:00 +0000",
		"Message-ID: <abc@smtp.local>",
		`charset="UTF-8"`,
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected %q in message %q", want, raw)
		}
	}

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	if !ok || head == "" {
		t.Fatalf("expected header/body separator, got %q", raw)
	}
	if !strings.Contains(body, "123456") || !strings.Contains(body, "2026-03-01T12:00:00Z") {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSendPasswordResetCodeRejectsBadRecipient(t *testing.T) {
	sender, err := NewSMTPSender("smtp.local", 587, "", "", "no-reply@csi.local", "", false)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	if err := sender.SendPasswordResetCode(context.Background(), "   ", "123456", time.Now()); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}

func TestSendPasswordResetCodeHonoursContext(t *testing.T) {
	sender, err := NewSMTPSender("127.0.0.1", 1, "", "", "no-reply@csi.local", "", false)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sender.SendPasswordResetCode(ctx, "ana@example.com", "123456", time.Now()); err == nil {
		t.Fatalf("expected error with cancelled context")
	}
}

func TestDisabledSender(t *testing.T) {
	if err := NewDisabledSender("").SendPasswordResetCode(context.Background(), "a@b.c", "000000", time.Now()); err == nil {
		t.Fatalf("expected disabled sender to fail")
	}
}
