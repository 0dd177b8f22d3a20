package domain

import (
	"encoding/json"
	"testing"
)

func TestFlexibleIDUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    FlexibleID
		wantErr bool
	}{
		{in: `{"user_id":"555"}`, want: "555"},
		{in: `{"user_id":555}`, want: "555"},
		{in: `{"user_id":null}`, want: ""},
		{in: `{}`, want: ""},
		{in: `{"user_id":true}`, wantErr: true},
		{in: `{"user_id":{"id":1}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var req CodeDeliveryRequest
			err := json.Unmarshal([]byte(tt.in), &req)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", req.UserID)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if req.UserID != tt.want {
				t.Errorf("UserID = %q, want %q", req.UserID, tt.want)
			}
		})
	}
}

func TestOutcomeMessages(t *testing.T) {
	outcomes := []LinkOutcome{
		OutcomeMalformed,
		OutcomeLinked,
		OutcomeAlreadyLinkedElsewhere,
		OutcomeUserNotFound,
		OutcomeAuthMissing,
		OutcomeTransportError,
	}
	seen := make(map[string]bool)
	for _, o := range outcomes {
		if o.Message() == "" {
			t.Errorf("%s has empty message", o)
		}
		if o.String() == "unknown" {
			t.Errorf("outcome %d has no name", int(o))
		}
		seen[o.Message()] = true
	}
	// сбой авторизации и транспорта пользователю не различаются
	if OutcomeAuthMissing.Message() != OutcomeTransportError.Message() {
		t.Error("auth and transport failures should share a message")
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 distinct messages, got %d", len(seen))
	}
}

func TestTenantRegistry(t *testing.T) {
	registry := NewTenantRegistry(map[string]Tenant{
		"beta": {Login: "b"},
		"acme": {Login: "a"},
	})

	ids := registry.IDs()
	if len(ids) != 2 || ids[0] != "acme" || ids[1] != "beta" {
		t.Errorf("IDs() = %v", ids)
	}
	tenant, ok := registry.Get("beta")
	if !ok || tenant.ID != "beta" {
		t.Errorf("Get(beta) = %+v, %v", tenant, ok)
	}
	if _, ok := registry.Get("gamma"); ok {
		t.Error("unknown tenant found")
	}
}
