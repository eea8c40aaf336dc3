package render

import (
	"fmt"
	"html"
	"strings"
	"time"
)

const entryEnd = "</p>"

// StylesheetHeader is the first line of every feed fragment.
func StylesheetHeader(href string) string {
	return fmt.Sprintf(`<link rel="stylesheet" href="%s">`, html.EscapeString(href)) + "\n"
}

// FeedEntry renders one update. text is escaped, so an entry never contains
// a stray closing paragraph tag.
func FeedEntry(text string, now time.Time) string {
	return fmt.Sprintf("<p>%s, <small>%s</small></p>\n", html.EscapeString(text), now.Format(TimeLayout))
}

// PrependFeed puts entry at the head of an existing feed. Whatever header the
// old feed carried is replaced by the current stylesheet link. maxEntries > 0
// keeps only that many of the newest entries.
func PrependFeed(existing string, exists bool, entry, stylesheet string, maxEntries int) string {
	body := ""
	if exists {
		body = stripHeader(existing)
	}
	feed := entry + body
	if maxEntries > 0 {
		feed = keepEntries(feed, maxEntries)
	}
	return StylesheetHeader(stylesheet) + feed
}

// CountEntries returns the number of entries in a rendered feed.
func CountEntries(feed string) int {
	return strings.Count(feed, entryEnd)
}

func stripHeader(feed string) string {
	if !strings.HasPrefix(feed, "<link ") {
		return feed
	}
	if i := strings.IndexByte(feed, '\n'); i >= 0 {
		return feed[i+1:]
	}
	if i := strings.IndexByte(feed, '>'); i >= 0 {
		return feed[i+1:]
	}
	return feed
}

func keepEntries(feed string, n int) string {
	end := 0
	for i := 0; i < n; i++ {
		j := strings.Index(feed[end:], entryEnd)
		if j < 0 {
			return feed
		}
		end += j + len(entryEnd)
	}
	if end < len(feed) && feed[end] == '\n' {
		end++
	}
	return feed[:end]
}
