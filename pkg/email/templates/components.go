package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// htmlWriter keeps the first write error so components can write
// sequentially without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(s string) {
	if hw.err == nil {
		_, hw.err = io.WriteString(hw.w, s)
	}
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) component(ctx context.Context, c templ.Component) {
	if hw.err == nil && c != nil {
		hw.err = c.Render(ctx, hw.w)
	}
}

// Layout wraps body with the shared header and footer.
func Layout(appName, title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		hw.text(title)
		hw.raw(`</title></head><body style="margin:0;padding:0;background:#f4f5f7;font-family:Helvetica,Arial,sans-serif;color:#1f2933;">`)
		hw.raw(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr><td align="center" style="padding:24px;">`)
		hw.raw(`<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:6px;">`)
		hw.raw(`<tr><td style="padding:20px 32px;border-bottom:1px solid #e4e7eb;font-size:18px;font-weight:bold;">`)
		hw.text(appName)
		hw.raw(`</td></tr><tr><td style="padding:24px 32px;font-size:15px;line-height:1.5;">`)
		hw.component(ctx, body)
		hw.raw(`</td></tr><tr><td style="padding:16px 32px;border-top:1px solid #e4e7eb;font-size:12px;color:#7b8794;">`)
		hw.raw(`This is an automated message from `)
		hw.text(appName)
		hw.raw(`. Please do not reply to automatic notifications.</td></tr></table></td></tr></table></body></html>`)
		return hw.err
	})
}

// Heading renders a section title.
func Heading(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<h1 style="font-size:20px;margin:0 0 16px;">`)
		hw.text(s)
		hw.raw(`</h1>`)
		return hw.err
	})
}

// Paragraph renders escaped text. Line breaks in s are preserved.
func Paragraph(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<p style="margin:0 0 12px;">`)
		hw.raw(strings.ReplaceAll(templ.EscapeString(s), "\n", "<br>"))
		hw.raw(`</p>`)
		return hw.err
	})
}

// Field is one label/value row of a details table.
type Field struct {
	Label string
	Value string
}

// Fields renders a two-column details table. Rows with an empty value are skipped.
func Fields(fields ...Field) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<table role="presentation" cellpadding="0" cellspacing="0" style="width:100%;margin:0 0 16px;border-collapse:collapse;">`)
		for _, f := range fields {
			if f.Value == "" {
				continue
			}
			hw.raw(`<tr><th align="left" style="padding:6px 12px 6px 0;width:35%;color:#52606d;font-weight:normal;">`)
			hw.text(f.Label)
			hw.raw(`</th><td style="padding:6px 0;">`)
			hw.raw(strings.ReplaceAll(templ.EscapeString(f.Value), "\n", "<br>"))
			hw.raw(`</td></tr>`)
		}
		hw.raw(`</table>`)
		return hw.err
	})
}

// Group renders components one after another.
func Group(components ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		for _, c := range components {
			hw.component(ctx, c)
		}
		return hw.err
	})
}
