// Package message renders email subjects and bodies from a closed set of
// named fields.
//
// Templates use Go template syntax ({{.team_name}}). Every field a template
// references must belong to the allowed set given to Compile, so a typo in a
// campaign template is caught before the first email goes out rather than on
// the hundredth.
package message

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"sort"
	"strings"
	texttemplate "text/template"
	"text/template/parse"
)

var (
	// ErrUnknownField reports a template reference outside the allowed set.
	ErrUnknownField = errors.New("unknown template field")
	// ErrMissingField reports a referenced field with no value at render time.
	ErrMissingField = errors.New("missing template field")
)

// HTMLFieldSuffix marks fields whose values are pre-rendered markup.
const HTMLFieldSuffix = "_html"

// TemplateSet holds the raw template sources for one campaign.
type TemplateSet struct {
	Subject string
	Text    string
	HTML    string
}

// Content is a rendered message.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

// Template is a compiled TemplateSet.
type Template struct {
	subject    *texttemplate.Template
	text       *texttemplate.Template
	html       *htmltemplate.Template
	referenced []string
}

// Compile parses the templates in set and verifies that every field they
// reference is in allowed.
func Compile(set TemplateSet, allowed []string) (*Template, error) {
	if strings.TrimSpace(set.Subject) == "" {
		return nil, errors.New("subject template is empty")
	}
	if strings.TrimSpace(set.Text) == "" && strings.TrimSpace(set.HTML) == "" {
		return nil, errors.New("a text or html body template is required")
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = struct{}{}
	}

	tmpl := &Template{}
	refs := map[string]struct{}{}
	var err error

	if tmpl.subject, err = parseText("subject", set.Subject); err != nil {
		return nil, err
	}
	collectFields(tmpl.subject.Tree.Root, refs)

	if strings.TrimSpace(set.Text) != "" {
		if tmpl.text, err = parseText("text", set.Text); err != nil {
			return nil, err
		}
		collectFields(tmpl.text.Tree.Root, refs)
	}

	if strings.TrimSpace(set.HTML) != "" {
		tmpl.html, err = htmltemplate.New("html").Option("missingkey=error").Parse(set.HTML)
		if err != nil {
			return nil, fmt.Errorf("parse html template: %w", err)
		}
		collectFields(tmpl.html.Tree.Root, refs)
	}

	var unknown []string
	for name := range refs {
		tmpl.referenced = append(tmpl.referenced, name)
		if _, ok := allowedSet[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(tmpl.referenced)
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(unknown, ", "))
	}
	return tmpl, nil
}

func parseText(name, source string) (*texttemplate.Template, error) {
	t, err := texttemplate.New(name).Option("missingkey=error").Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	return t, nil
}

// Referenced returns the sorted field names the templates use.
func (t *Template) Referenced() []string {
	return append([]string(nil), t.referenced...)
}

// Render executes the templates against fields. Every referenced field must
// be present; an empty value is allowed.
func (t *Template) Render(fields map[string]string) (Content, error) {
	var missing []string
	for _, name := range t.referenced {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Content{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	var out Content
	var buf bytes.Buffer
	if err := t.subject.Execute(&buf, fields); err != nil {
		return Content{}, fmt.Errorf("render subject: %w", err)
	}
	out.Subject = strings.Join(strings.Fields(buf.String()), " ")

	if t.text != nil {
		buf.Reset()
		if err := t.text.Execute(&buf, fields); err != nil {
			return Content{}, fmt.Errorf("render text body: %w", err)
		}
		out.Text = strings.TrimSpace(buf.String()) + "\n"
	}
	if t.html != nil {
		buf.Reset()
		if err := t.html.Execute(&buf, htmlData(fields)); err != nil {
			return Content{}, fmt.Errorf("render html body: %w", err)
		}
		out.HTML = buf.String()
	}
	return out, nil
}

// htmlData marks fields named *_html as trusted markup so html/template does
// not escape them. Producers of such fields escape their own inputs.
func htmlData(fields map[string]string) map[string]any {
	data := make(map[string]any, len(fields))
	for name, value := range fields {
		if strings.HasSuffix(name, HTMLFieldSuffix) {
			data[name] = htmltemplate.HTML(value)
			continue
		}
		data[name] = value
	}
	return data
}

// collectFields records the first identifier of every .field reference.
func collectFields(node parse.Node, refs map[string]struct{}) {
	if node == nil {
		return
	}
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			collectFields(child, refs)
		}
	case *parse.ActionNode:
		collectFields(n.Pipe, refs)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			collectFields(cmd, refs)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			collectFields(arg, refs)
		}
	case *parse.FieldNode:
		if len(n.Ident) > 0 {
			refs[n.Ident[0]] = struct{}{}
		}
	case *parse.ChainNode:
		collectFields(n.Node, refs)
	case *parse.IfNode:
		collectBranch(&n.BranchNode, refs)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, refs)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, refs)
	case *parse.TemplateNode:
		collectFields(n.Pipe, refs)
	}
}

func collectBranch(n *parse.BranchNode, refs map[string]struct{}) {
	collectFields(n.Pipe, refs)
	collectFields(n.List, refs)
	if n.ElseList != nil {
		collectFields(n.ElseList, refs)
	}
}
