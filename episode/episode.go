// Package episode defines the canonical episode record and the pure
// normalization logic that turns raw scraped fields into one.
package episode

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// listingDateFormat is the date-only format used by the episode listing
// pages. The listing never carries a time of day.
const listingDateFormat = "2006-01-02"

// Episode represents a single broadcast and its audio asset. An Episode
// is immutable once constructed: it is built either from an item in an
// existing feed file or from one harvested listing row, and is never
// updated afterward.
type Episode struct {
	Title       string
	Description string
	PubDate     time.Time
	Link        string
	AudioURL    string
	Duration    string
	Size        int64
}

// Raw holds the fields extracted from one listing row before
// normalization. Date is the date-only string from the row's time tag;
// Duration is in seconds; Size is zero when the source did not provide
// one.
type Raw struct {
	Title    string
	Teaser   string
	Link     string
	Date     string
	AudioURL string
	Duration int
	Size     int64
}

// Normalize converts a raw listing row into a canonical Episode. The
// date-only publication date becomes a timezone-aware timestamp at noon
// UTC, and a missing size is estimated from the duration and the given
// bitrate. Normalize performs no I/O.
func Normalize(raw Raw, bitrateKbps int) (Episode, error) {
	pubDate, err := ParseListingDate(raw.Date)
	if err != nil {
		return Episode{}, err
	}

	size := raw.Size
	if size == 0 {
		size = EstimateSize(raw.Duration, bitrateKbps)
	}

	return Episode{
		Title:       raw.Title,
		Description: raw.Teaser,
		PubDate:     pubDate,
		Link:        raw.Link,
		AudioURL:    raw.AudioURL,
		Duration:    strconv.Itoa(raw.Duration),
		Size:        size,
	}, nil
}

// ParseListingDate parses a date-only value from the listing and
// returns a timestamp at 12:00 UTC on that calendar date. The listing
// provides neither a time nor a timezone, so noon UTC keeps the
// calendar date stable in every timezone.
func ParseListingDate(value string) (time.Time, error) {
	day, err := time.Parse(listingDateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse episode date %q: %w", value, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC), nil
}

// EstimateSize returns the approximate byte length of an audio file of
// the given duration encoded at the given constant bitrate.
func EstimateSize(durationSeconds, bitrateKbps int) int64 {
	return int64(durationSeconds) * int64(bitrateKbps) * 1000 / 8
}

// SizeFromAudioURL extracts the explicit file size from the audio URL's
// query parameters. The CDN encodes the byte length in a "size"
// parameter on most, but not all, asset URLs.
func SizeFromAudioURL(audioURL string) (int64, bool) {
	u, err := url.Parse(audioURL)
	if err != nil {
		return 0, false
	}
	value := u.Query().Get("size")
	if value == "" {
		return 0, false
	}
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return size, true
}
