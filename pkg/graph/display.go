package graph

import (
	"regexp"
	"strings"
)

var (
	htmlCodeBlock = regexp.MustCompile("(?is)```(html|xml)\\s*(.*?)\\s*```")
	rawHTMLStart  = regexp.MustCompile(`(?i)^(<!DOCTYPE html>|<html)`)
)

// ExtractHTML returns the HTML document embedded in content: either the body
// of an html/xml fenced code block, or content itself when it starts with a
// doctype or html tag. The second result is false when no HTML was found.
func ExtractHTML(content string) (string, bool) {
	if content == "" {
		return "", false
	}
	if m := htmlCodeBlock.FindStringSubmatch(content); m != nil {
		body := m[2]
		if strings.Contains(body, "<") && strings.Contains(body, ">") {
			return body, true
		}
	}
	if rawHTMLStart.MatchString(strings.TrimSpace(content)) {
		return content, true
	}
	return "", false
}

// InferContentType classifies display content as html, markdown or text.
func InferContentType(content string) ContentType {
	if _, ok := ExtractHTML(content); ok {
		return ContentHTML
	}
	if strings.Contains(content, "# ") || strings.Contains(content, "**") || strings.Contains(content, "```") {
		return ContentMarkdown
	}
	return ContentText
}

const htmlShell = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
%s
</body>
</html>`

// NormalizeHTML wraps an HTML fragment in a minimal document when it has no
// body element of its own.
func NormalizeHTML(html string) string {
	if strings.Contains(html, "<body") {
		return html
	}
	return strings.Replace(htmlShell, "%s", html, 1)
}
