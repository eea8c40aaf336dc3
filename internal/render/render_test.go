package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stamp = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func TestParsePoint(t *testing.T) {
	tests := []struct {
		lat, lon string
		want     Point
		wantErr  bool
	}{
		{"53.377452", "-1.465185", Point{53.377452, -1.465185}, false},
		{" 0 ", "0", Point{}, false},
		{"200", "-400", Point{200, -400}, false},
		{"north", "1", Point{}, true},
		{"1", "", Point{}, true},
		{"NaN", "1", Point{}, true},
		{"1", "inf", Point{}, true},
	}
	for _, tt := range tests {
		got, err := ParsePoint(tt.lat, tt.lon)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrBadCoordinate, "%s %s", tt.lat, tt.lon)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestBBox(t *testing.T) {
	p := Point{Lat: 53.377452, Lon: -1.465185}
	assert.Equal(t, "-1.536853625%2C53.354926365%2C-1.393516375%2C53.399977635", BBox(p))
	assert.Equal(t, "-0.071668625%2C-0.022525635%2C0.071668625%2C0.022525635", BBox(Point{}))
}

func TestLocation(t *testing.T) {
	p := Point{Lat: 53.377452, Lon: -1.465185}
	html := Location(p, stamp)

	assert.True(t, strings.HasPrefix(html, "<html><body>"))
	assert.True(t, strings.HasSuffix(html, "</body></html>"))
	assert.Contains(t, html, "lat/lon: 53.377452, -1.465185")
	assert.Contains(t, html, "bbox=-1.536853625%2C53.354926365%2C-1.393516375%2C53.399977635")
	assert.Contains(t, html, "marker=53.377452%2C-1.465185")
	assert.Contains(t, html, "mlat=53.377452&amp;mlon=-1.465185#map=14/53.377452/-1.465185")
	assert.Contains(t, html, "View Larger Map")
	assert.Contains(t, html, "last updated: 2024-03-09 14:05:07")
}

func TestMapLink(t *testing.T) {
	assert.Equal(t,
		"https://www.openstreetmap.org/?mlat=1.5&mlon=-2#map=14/1.5/-2",
		MapLink(Point{Lat: 1.5, Lon: -2}))
}

func TestFeedEntryEscapes(t *testing.T) {
	got := FeedEntry("<b>hi</b> & </p>", stamp)
	assert.Equal(t, "<p>&lt;b&gt;hi&lt;/b&gt; &amp; &lt;/p&gt;, <small>2024-03-09 14:05:07</small></p>\n", got)
}

func TestPrependFeedNewestFirst(t *testing.T) {
	feed := PrependFeed("", false, FeedEntry("a", stamp), "style.css", 0)
	assert.Equal(t, StylesheetHeader("style.css")+FeedEntry("a", stamp), feed)

	feed = PrependFeed(feed, true, FeedEntry("b", stamp), "style.css", 0)
	assert.Less(t, strings.Index(feed, "<p>b,"), strings.Index(feed, "<p>a,"))
	assert.Equal(t, 1, strings.Count(feed, "<link "))
	assert.Equal(t, 2, CountEntries(feed))
}

func TestPrependFeedReplacesHeader(t *testing.T) {
	old := StylesheetHeader("old.css") + FeedEntry("a", stamp)
	feed := PrependFeed(old, true, FeedEntry("b", stamp), "new.css", 0)
	assert.True(t, strings.HasPrefix(feed, StylesheetHeader("new.css")))
	assert.NotContains(t, feed, "old.css")
}

func TestPrependFeedKeepsHeaderlessContent(t *testing.T) {
	feed := PrependFeed("<p>legacy</p>", true, FeedEntry("b", stamp), "s.css", 0)
	assert.True(t, strings.HasSuffix(feed, "<p>legacy</p>"))
}

func TestPrependFeedCap(t *testing.T) {
	feed := ""
	exists := false
	for _, s := range []string{"a", "b", "c", "d"} {
		feed = PrependFeed(feed, exists, FeedEntry(s, stamp), "s.css", 2)
		exists = true
	}
	assert.Equal(t, 2, CountEntries(feed))
	assert.Contains(t, feed, "<p>d,")
	assert.Contains(t, feed, "<p>c,")
	assert.NotContains(t, feed, "<p>b,")
	assert.True(t, strings.HasSuffix(feed, "</p>\n"))
}

func TestStatusAndName(t *testing.T) {
	assert.Equal(t,
		"<html><body><p>out &amp; about, <small>last updated: 2024-03-09 14:05:07</small></p></body></html>",
		Status("out & about", stamp))
	assert.Equal(t, "Bob", Name("  Bob \n"))
}
