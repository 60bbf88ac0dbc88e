package transport

import (
	"festmail/internal/message"
	"festmail/internal/recipient"
)

// Envelope turns a recipient and rendered content into an addressed Message.
type Envelope struct {
	ReplyTo  *Address
	GlobalCC []string
	// TestTo, when set, replaces the recipient's addresses. The recipient's
	// own CCs are dropped; global CCs are kept.
	TestTo string
}

// Address builds the message for r.
func (e Envelope) Address(r recipient.Recipient, content message.Content) Message {
	msg := Message{
		ReplyTo: e.ReplyTo,
		Subject: content.Subject,
		Text:    content.Text,
		HTML:    content.HTML,
	}

	seen := map[string]struct{}{}
	add := func(list *[]Address, email, name string) {
		email = recipient.CleanAddress(email)
		if email == "" {
			return
		}
		if _, ok := seen[email]; ok {
			return
		}
		seen[email] = struct{}{}
		*list = append(*list, Address{Email: email, Name: name})
	}

	if e.TestTo != "" {
		add(&msg.To, e.TestTo, "Test - "+r.Key)
	} else {
		add(&msg.To, r.Primary, r.Name)
		for _, cc := range r.Secondary {
			add(&msg.CC, cc, "")
		}
		if len(msg.To) == 0 && len(msg.CC) > 0 {
			msg.To, msg.CC = msg.CC[:1], msg.CC[1:]
		}
	}
	for _, cc := range e.GlobalCC {
		add(&msg.CC, cc, "")
	}
	return msg
}
