package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Half widths of the map window around a point.
const (
	BBoxLatDelta = 0.022525635
	BBoxLonDelta = 0.071668625
)

// TimeLayout is the format of every "last updated" stamp.
const TimeLayout = "2006-01-02 15:04:05"

var ErrBadCoordinate = errors.New("bad coordinate")

// Point is a latitude/longitude pair. Values are not range checked.
type Point struct {
	Lat, Lon float64
}

// ParsePoint reads a point from two command arguments.
func ParsePoint(lat, lon string) (Point, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: latitude %q", ErrBadCoordinate, lat)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: longitude %q", ErrBadCoordinate, lon)
	}
	if math.IsNaN(la) || math.IsInf(la, 0) || math.IsNaN(lo) || math.IsInf(lo, 0) {
		return Point{}, fmt.Errorf("%w: %s %s", ErrBadCoordinate, lat, lon)
	}
	return Point{Lat: la, Lon: lo}, nil
}

// Coord formats a coordinate in its shortest round-trip form.
func Coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// bboxCoord drops float noise beyond the precision of the deltas.
func bboxCoord(v float64) string {
	return Coord(math.Round(v*1e9) / 1e9)
}

// BBox returns "minLon%2CminLat%2CmaxLon%2CmaxLat" for the OSM embed.
func BBox(p Point) string {
	return strings.Join([]string{
		bboxCoord(p.Lon - BBoxLonDelta),
		bboxCoord(p.Lat - BBoxLatDelta),
		bboxCoord(p.Lon + BBoxLonDelta),
		bboxCoord(p.Lat + BBoxLatDelta),
	}, "%2C")
}

// MapLink points at the OpenStreetMap viewer centred on p.
func MapLink(p Point) string {
	lat, lon := Coord(p.Lat), Coord(p.Lon)
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%s&mlon=%s#map=14/%s/%s", lat, lon, lat, lon)
}

// Location renders the embed page for p.
func Location(p Point, now time.Time) string {
	lat, lon := Coord(p.Lat), Coord(p.Lon)
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, `<p>lat/lon: %s, %s</p>`, lat, lon)
	fmt.Fprintf(&b, `<iframe width="425" height="350" src="https://www.openstreetmap.org/export/embed.html?bbox=%s&amp;layer=mapnik&amp;marker=%s%%2C%s" style="border: 1px solid black"></iframe>`,
		BBox(p), lat, lon)
	fmt.Fprintf(&b, `<br/><small><a href="https://www.openstreetmap.org/?mlat=%s&amp;mlon=%s#map=14/%s/%s">View Larger Map</a></small>`,
		lat, lon, lat, lon)
	fmt.Fprintf(&b, ", <small>last updated: %s</small>", now.Format(TimeLayout))
	b.WriteString("</body></html>")
	return b.String()
}
