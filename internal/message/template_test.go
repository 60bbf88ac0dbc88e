package message_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"festmail/internal/message"
)

func TestCompileRejectsUnknownFields(t *testing.T) {
	tests := []struct {
		name string
		set  message.TemplateSet
	}{
		{name: "subject", set: message.TemplateSet{Subject: "Hi {{.team}}", Text: "body"}},
		{name: "text", set: message.TemplateSet{Subject: "Hi", Text: "Dear {{.team_nmae}}"}},
		{name: "html", set: message.TemplateSet{Subject: "Hi", HTML: "<p>{{.secret}}</p>"}},
		{name: "inside if", set: message.TemplateSet{Subject: "Hi", Text: "{{if .flag}}x{{else}}{{.other}}{{end}}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := message.Compile(tt.set, []string{"team_name", "flag"})
			if !errors.Is(err, message.ErrUnknownField) {
				t.Fatalf("expected ErrUnknownField, got %v", err)
			}
		})
	}
}

func TestCompileRequiresSubjectAndBody(t *testing.T) {
	if _, err := message.Compile(message.TemplateSet{Text: "x"}, nil); err == nil {
		t.Fatal("expected error for empty subject")
	}
	if _, err := message.Compile(message.TemplateSet{Subject: "x"}, nil); err == nil {
		t.Fatal("expected error for missing body")
	}
}

func TestCompileReportsSyntaxErrors(t *testing.T) {
	if _, err := message.Compile(message.TemplateSet{Subject: "x", Text: "{{.team_name"}, []string{"team_name"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRenderFillsFields(t *testing.T) {
	tmpl, err := message.Compile(message.TemplateSet{
		Subject: "Slots for\n {{.university}}",
		Text:    "\nDear {{.university}},\nTeams:\n{{.team_list}}\n",
		HTML:    "<p>{{.university}}</p>",
	}, []string{"university", "team_list"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := tmpl.Referenced(); !reflect.DeepEqual(got, []string{"team_list", "university"}) {
		t.Fatalf("unexpected referenced fields %v", got)
	}

	content, err := tmpl.Render(map[string]string{"university": "A & B University", "team_list": "  • Alpha"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if content.Subject != "Slots for A & B University" {
		t.Fatalf("unexpected subject %q", content.Subject)
	}
	if !strings.HasPrefix(content.Text, "Dear A & B University,") || !strings.Contains(content.Text, "  • Alpha") {
		t.Fatalf("unexpected text %q", content.Text)
	}
	if content.HTML != "<p>A &amp; B University</p>" {
		t.Fatalf("expected html escaping, got %q", content.HTML)
	}
}

func TestRenderRejectsMissingField(t *testing.T) {
	tmpl, err := message.Compile(message.TemplateSet{Subject: "Hi {{.team_name}}", Text: "{{.link}}"}, []string{"team_name", "link"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, err = tmpl.Render(map[string]string{"team_name": "A"})
	if !errors.Is(err, message.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if !strings.Contains(err.Error(), "link") {
		t.Fatalf("expected field name in error, got %v", err)
	}
}

func TestRenderAllowsEmptyValues(t *testing.T) {
	tmpl, err := message.Compile(message.TemplateSet{Subject: "Hi", Text: "x{{.note}}y"}, []string{"note"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	content, err := tmpl.Render(map[string]string{"note": ""})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if content.Text != "xy\n" {
		t.Fatalf("unexpected text %q", content.Text)
	}
}

func TestRenderTrustsHTMLSuffixedFields(t *testing.T) {
	tmpl, err := message.Compile(message.TemplateSet{Subject: "Hi", HTML: "{{.team_list_html}}{{.university}}"}, []string{"team_list_html", "university"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	content, err := tmpl.Render(map[string]string{"team_list_html": "<ul><li>A</li></ul>", "university": "<b>"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if content.HTML != "<ul><li>A</li></ul>&lt;b&gt;" {
		t.Fatalf("unexpected html %q", content.HTML)
	}
}
