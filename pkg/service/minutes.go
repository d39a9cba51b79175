package service

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/appboardguru/boardguru/pkg/apperr"
)

// markdown renders minutes. Raw HTML in the source is not passed through.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		html.WithXHTML(),
	),
)

// RenderMinutesHTML converts Markdown minutes to an HTML fragment
func RenderMinutesHTML(minutes string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(stripCodeFence(minutes)), &buf); err != nil {
		return "", apperr.Internal(err)
	}
	return buf.String(), nil
}

// stripCodeFence removes a fence wrapping the whole document, which
// language models like to add around Markdown output
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return s
	}
	body := strings.TrimSuffix(trimmed, "```")
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return s
	}
	return strings.TrimSpace(body[nl+1:])
}
