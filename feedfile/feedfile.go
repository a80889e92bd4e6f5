// Package feedfile reads a previously generated podcast feed so a run
// can harvest only episodes newer than the ones already on file.
package feedfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pevans/cartalker/episode"
)

var (
	// ErrNotFound indicates the input path does not exist.
	ErrNotFound = errors.New("input file not found")

	// ErrInvalidFormat indicates the input exists but is not a
	// parseable podcast feed.
	ErrInvalidFormat = errors.New("input is not valid podcast RSS")
)

// Parse reads the feed file at path and returns its episodes in file
// order together with the publication date of the most recent one.
// The returned date is nil when the feed has no items.
//
// The most recent date is taken as the later of the first and last
// items' dates: feeds in the wild append in both directions, and
// nothing else about the item order is assumed.
func Parse(path string) ([]episode.Episode, *time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	feed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	episodes := make([]episode.Episode, 0, len(feed.Items))
	for _, item := range feed.Items {
		ep, err := itemToEpisode(item)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		episodes = append(episodes, ep)
	}

	if len(episodes) == 0 {
		return episodes, nil, nil
	}

	// The newest item may sit at either end of the channel.
	last := episodes[0].PubDate
	if tail := episodes[len(episodes)-1].PubDate; tail.After(last) {
		last = tail
	}

	return episodes, &last, nil
}

// itemToEpisode maps one feed item onto an Episode. Dates in the file
// are already canonical, so no normalization is applied.
func itemToEpisode(item *gofeed.Item) (episode.Episode, error) {
	if item.PublishedParsed == nil {
		return episode.Episode{}, fmt.Errorf("item %q has no parseable pubDate", item.Title)
	}
	if len(item.Enclosures) == 0 {
		return episode.Episode{}, fmt.Errorf("item %q has no enclosure", item.Title)
	}

	enclosure := item.Enclosures[0]
	size, err := strconv.ParseInt(enclosure.Length, 10, 64)
	if err != nil {
		return episode.Episode{}, fmt.Errorf("item %q has enclosure length %q", item.Title, enclosure.Length)
	}

	description := item.Description
	var duration string
	if item.ITunesExt != nil {
		if item.ITunesExt.Summary != "" {
			description = item.ITunesExt.Summary
		}
		duration = item.ITunesExt.Duration
	}

	return episode.Episode{
		Title:       item.Title,
		Description: description,
		PubDate:     *item.PublishedParsed,
		Link:        item.Link,
		AudioURL:    enclosure.URL,
		Duration:    duration,
		Size:        size,
	}, nil
}
