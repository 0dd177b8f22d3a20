package service

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"tg-link-service/internal/domain"
)

func TestParseStartArgs(t *testing.T) {
	tests := []struct {
		args       string
		wantPhone  string
		wantTenant string
		wantErr    bool
	}{
		{args: "79990001111_acme", wantPhone: "79990001111", wantTenant: "acme"},
		{args: "79990001111_acme_eu", wantPhone: "79990001111", wantTenant: "acme_eu"},
		{args: "  79990001111_acme ", wantPhone: "79990001111", wantTenant: "acme"},
		{args: "", wantErr: true},
		{args: "79990001111", wantErr: true},
		{args: "_acme", wantErr: true},
		{args: "79990001111_", wantErr: true},
		{args: "_", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			phone, tenant, err := ParseStartArgs(tt.args)
			if tt.wantErr {
				if err != domain.ErrMalformedStartArgs {
					t.Fatalf("expected ErrMalformedStartArgs, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStartArgs failed: %v", err)
			}
			if phone != tt.wantPhone || tenant != tt.wantTenant {
				t.Errorf("got (%q, %q), want (%q, %q)", phone, tenant, tt.wantPhone, tt.wantTenant)
			}
		})
	}
}

func TestHandleStartMalformed(t *testing.T) {
	fp := newFakePartner(t)
	client := newTestClient(t, fp, "acme")
	client.AuthenticateAll(context.Background())
	before := fp.callCount()

	links := NewLinkService(client, testLogger())
	for _, args := range []string{"", "79990001111", "_acme", "79990001111_", "hello world"} {
		res := links.HandleStart(context.Background(), args, "555")
		if res.Outcome != domain.OutcomeMalformed {
			t.Errorf("%q: outcome = %v, want malformed", args, res.Outcome)
		}
		if res.Message != domain.MessageGuidance {
			t.Errorf("%q: unexpected message %q", args, res.Message)
		}
	}

	if fp.callCount() != before {
		t.Errorf("malformed args made %d requests", fp.callCount()-before)
	}
}

func TestHandleStart(t *testing.T) {
	oneUser := func(string, string, url.Values) (int, string) {
		return http.StatusOK, `{"data":{"user":{"42":{"u_phone":"79990001111"}}}}`
	}

	tests := []struct {
		name        string
		noAuth      bool
		user        partnerReply
		edit        partnerReply
		wantOutcome domain.LinkOutcome
		wantMessage string
		wantCalls   int
	}{
		{
			name:        "linked",
			user:        oneUser,
			wantOutcome: domain.OutcomeLinked,
			wantMessage: domain.MessageLinked,
			wantCalls:   2,
		},
		{
			name: "already linked elsewhere",
			user: oneUser,
			edit: func(string, string, url.Values) (int, string) {
				return http.StatusOK, `{"success":false,"message":"busy user data: double tg"}`
			},
			wantOutcome: domain.OutcomeAlreadyLinkedElsewhere,
			wantMessage: domain.MessageAlreadyLinked,
			wantCalls:   2,
		},
		{
			name: "already linked elsewhere with error status",
			user: oneUser,
			edit: func(string, string, url.Values) (int, string) {
				return http.StatusConflict, `{"message":"busy user data: double tg"}`
			},
			wantOutcome: domain.OutcomeAlreadyLinkedElsewhere,
			wantMessage: domain.MessageAlreadyLinked,
			wantCalls:   2,
		},
		{
			name:        "user not found",
			wantOutcome: domain.OutcomeUserNotFound,
			wantMessage: domain.MessageUserNotFound,
			wantCalls:   1,
		},
		{
			name:        "no session",
			noAuth:      true,
			wantOutcome: domain.OutcomeAuthMissing,
			wantMessage: domain.MessageLinkError,
			wantCalls:   0,
		},
		{
			name: "lookup fails",
			user: func(string, string, url.Values) (int, string) {
				return http.StatusInternalServerError, ``
			},
			wantOutcome: domain.OutcomeTransportError,
			wantMessage: domain.MessageLinkError,
			wantCalls:   1,
		},
		{
			name: "edit fails",
			user: oneUser,
			edit: func(string, string, url.Values) (int, string) {
				return http.StatusInternalServerError, `{"message":"db is down"}`
			},
			wantOutcome: domain.OutcomeTransportError,
			wantMessage: domain.MessageLinkError,
			wantCalls:   2,
		},
		{
			name: "edit response without flag or sentinel",
			user: oneUser,
			edit: func(string, string, url.Values) (int, string) {
				return http.StatusOK, `{"status":"ok"}`
			},
			wantOutcome: domain.OutcomeTransportError,
			wantMessage: domain.MessageLinkError,
			wantCalls:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := newFakePartner(t)
			if tt.user != nil {
				fp.user = tt.user
			}
			if tt.edit != nil {
				fp.edit = tt.edit
			}
			client := newTestClient(t, fp, "acme")
			if !tt.noAuth {
				client.AuthenticateAll(context.Background())
			}
			before := fp.callCount()

			res := NewLinkService(client, testLogger()).HandleStart(context.Background(), "79990001111_acme", "555")
			if res.Outcome != tt.wantOutcome {
				t.Errorf("outcome = %v, want %v", res.Outcome, tt.wantOutcome)
			}
			if res.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", res.Message, tt.wantMessage)
			}
			if calls := fp.callCount() - before; calls != tt.wantCalls {
				t.Errorf("made %d requests, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestHandleStartEndToEnd(t *testing.T) {
	fp := newFakePartner(t)
	fp.user = func(tenant, _ string, form url.Values) (int, string) {
		if tenant != "acme" || form.Get("u_a_phone") != "79990001111" {
			return http.StatusOK, `{"data":[]}`
		}
		return http.StatusOK, `{"data":{"user":{"42":{"u_name":"Ivan"}}}}`
	}
	fp.edit = func(_, path string, form url.Values) (int, string) {
		if path != "user/42" || form.Get("data") != `{"u_tg":555}` {
			return http.StatusOK, `{"success":false}`
		}
		return http.StatusOK, `{"success":true}`
	}
	client := newTestClient(t, fp, "acme", "other")
	client.AuthenticateAll(context.Background())

	res := NewLinkService(client, testLogger()).HandleStart(context.Background(), "79990001111_acme", "555")
	if res.Outcome != domain.OutcomeLinked {
		t.Fatalf("outcome = %v, want linked", res.Outcome)
	}
	if res.Message != domain.MessageLinked {
		t.Errorf("unexpected reply %q", res.Message)
	}
	if res.UserID != "42" {
		t.Errorf("UserID = %q, want 42", res.UserID)
	}
}

func TestHandleStartRelinkIsIdempotent(t *testing.T) {
	fp := newFakePartner(t)
	fp.user = func(string, string, url.Values) (int, string) {
		return http.StatusOK, `{"data":{"user":{"42":{}}}}`
	}
	client := newTestClient(t, fp, "acme")
	client.AuthenticateAll(context.Background())
	links := NewLinkService(client, testLogger())

	for i := 0; i < 2; i++ {
		res := links.HandleStart(context.Background(), "79990001111_acme", "555")
		if res.Outcome != domain.OutcomeLinked {
			t.Fatalf("attempt %d: outcome = %v, want linked", i+1, res.Outcome)
		}
	}
}

func TestHandleStartPicksFirstUserID(t *testing.T) {
	fp := newFakePartner(t)
	fp.user = func(string, string, url.Values) (int, string) {
		return http.StatusOK, `{"data":{"user":{"9":{},"17":{},"120":{}}}}`
	}
	client := newTestClient(t, fp, "acme")
	client.AuthenticateAll(context.Background())

	res := NewLinkService(client, testLogger()).HandleStart(context.Background(), "79990001111_acme", "555")
	if res.UserID != "120" {
		t.Errorf("UserID = %q, want lexicographically first %q", res.UserID, "120")
	}
	if fp.lastCall() != "acme user/120" {
		t.Errorf("edit sent to %q", fp.lastCall())
	}
}
