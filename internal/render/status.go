package render

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// Status renders the status line page.
func Status(text string, now time.Time) string {
	return fmt.Sprintf("<html><body><p>%s, <small>last updated: %s</small></p></body></html>",
		html.EscapeString(text), now.Format(TimeLayout))
}

// Name is stored as plain text.
func Name(text string) string {
	return strings.TrimSpace(text)
}
