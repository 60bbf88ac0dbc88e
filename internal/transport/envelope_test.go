package transport_test

import (
	"testing"

	"festmail/internal/message"
	"festmail/internal/recipient"
	"festmail/internal/transport"
)

func emails(list []transport.Address) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Email)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEnvelopeAddressesPrimaryAndCC(t *testing.T) {
	r := recipient.Recipient{Key: "BUET", Primary: "coach1@example.com", Secondary: []string{"coach2@example.com", "ops@fest.test"}}
	env := transport.Envelope{GlobalCC: []string{"ops@fest.test", "chair@fest.test"}}

	msg := env.Address(r, message.Content{Subject: "s", Text: "t"})
	if got := emails(msg.To); !equal(got, []string{"coach1@example.com"}) {
		t.Fatalf("unexpected to %v", got)
	}
	if got := emails(msg.CC); !equal(got, []string{"coach2@example.com", "ops@fest.test", "chair@fest.test"}) {
		t.Fatalf("unexpected cc %v", got)
	}
	if msg.Subject != "s" || msg.Text != "t" {
		t.Fatalf("content not carried: %+v", msg)
	}
}

func TestEnvelopeTestModeRedirects(t *testing.T) {
	r := recipient.Recipient{Key: "BUET", Primary: "coach1@example.com", Secondary: []string{"coach2@example.com"}}
	env := transport.Envelope{TestTo: "tester@fest.test", GlobalCC: []string{"chair@fest.test"}}

	msg := env.Address(r, message.Content{Subject: "s"})
	if len(msg.To) != 1 || msg.To[0].Email != "tester@fest.test" || msg.To[0].Name != "Test - BUET" {
		t.Fatalf("unexpected to %+v", msg.To)
	}
	if got := emails(msg.CC); !equal(got, []string{"chair@fest.test"}) {
		t.Fatalf("unexpected cc %v", got)
	}
}

func TestEnvelopePromotesFirstCCWhenPrimaryMissing(t *testing.T) {
	r := recipient.Recipient{Key: "A", Secondary: []string{"b@example.com", "c@example.com"}}
	msg := transport.Envelope{}.Address(r, message.Content{})
	if got := emails(msg.To); !equal(got, []string{"b@example.com"}) {
		t.Fatalf("unexpected to %v", got)
	}
	if got := emails(msg.CC); !equal(got, []string{"c@example.com"}) {
		t.Fatalf("unexpected cc %v", got)
	}
}
