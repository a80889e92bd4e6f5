// Package podcast builds and writes RSS 2.0 documents with the iTunes
// podcast extensions.
package podcast

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/pevans/cartalker/episode"
)

const (
	itunesNamespace  = "http://www.itunes.com/dtds/podcast-1.0.dtd"
	podcastNamespace = "https://podcastindex.org/namespace/1.0"

	// Every episode asset the station serves is an MP3.
	enclosureType = "audio/mpeg"
)

// Show holds the channel-level metadata describing the program itself.
type Show struct {
	Title       string
	Description string
	ImageURL    string
	Link        string
	Language    string
	Copyright   string
	Author      string
}

// RSS is the root element of the generated feed.
type RSS struct {
	XMLName   xml.Name `xml:"rss"`
	Version   string   `xml:"version,attr"`
	ItunesNS  string   `xml:"xmlns:itunes,attr"`
	PodcastNS string   `xml:"xmlns:podcast,attr"`
	Channel   Channel  `xml:"channel"`
}

// Channel carries the show metadata and one item per episode.
type Channel struct {
	Title         string       `xml:"title"`
	Link          string       `xml:"link"`
	Description   string       `xml:"description"`
	Language      string       `xml:"language,omitempty"`
	Copyright     string       `xml:"copyright,omitempty"`
	LastBuildDate string       `xml:"lastBuildDate,omitempty"`
	GUID          string       `xml:"podcast:guid,omitempty"`
	Image         *Image       `xml:"image,omitempty"`
	ItunesImage   *ItunesImage `xml:"itunes:image,omitempty"`
	ItunesAuthor  string       `xml:"itunes:author,omitempty"`
	Items         []Item       `xml:"item"`
}

// Image is the RSS channel image.
type Image struct {
	URL   string `xml:"url"`
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

// ItunesImage is the iTunes variant of the channel artwork.
type ItunesImage struct {
	Href string `xml:"href,attr"`
}

// Item is one feed entry.
type Item struct {
	Title          string    `xml:"title"`
	Description    string    `xml:"description"`
	PubDate        string    `xml:"pubDate"`
	Link           string    `xml:"link"`
	GUID           GUID      `xml:"guid"`
	Enclosure      Enclosure `xml:"enclosure"`
	ItunesAuthor   string    `xml:"itunes:author,omitempty"`
	ItunesDuration string    `xml:"itunes:duration,omitempty"`
	ItunesExplicit string    `xml:"itunes:explicit"`
	ItunesSummary  string    `xml:"itunes:summary,omitempty"`
}

// GUID is the item identifier; the episode page link serves as a
// permalink so regenerated feeds keep stable item identity.
type GUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink string `xml:"isPermaLink,attr"`
}

// Enclosure references the downloadable audio asset.
type Enclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Build assembles the feed document for the given show and episode
// sequence. Episodes appear in the order given. The teaser text fills
// both the description and the iTunes summary, and every item is
// flagged not explicit.
func Build(show Show, episodes []episode.Episode) *RSS {
	items := make([]Item, 0, len(episodes))
	for _, ep := range episodes {
		items = append(items, Item{
			Title:       ep.Title,
			Description: ep.Description,
			PubDate:     ep.PubDate.Format(time.RFC1123Z),
			Link:        ep.Link,
			GUID:        GUID{Value: ep.Link, IsPermaLink: "true"},
			Enclosure: Enclosure{
				URL:    ep.AudioURL,
				Length: ep.Size,
				Type:   enclosureType,
			},
			ItunesAuthor:   show.Author,
			ItunesDuration: ep.Duration,
			ItunesExplicit: "no",
			ItunesSummary:  ep.Description,
		})
	}

	channel := Channel{
		Title:         show.Title,
		Link:          show.Link,
		Description:   show.Description,
		Language:      show.Language,
		Copyright:     show.Copyright,
		LastBuildDate: time.Now().UTC().Format(time.RFC1123Z),
		GUID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(show.Link)).String(),
		ItunesAuthor:  show.Author,
		Items:         items,
	}
	if show.ImageURL != "" {
		channel.Image = &Image{URL: show.ImageURL, Title: show.Title, Link: show.Link}
		channel.ItunesImage = &ItunesImage{Href: show.ImageURL}
	}

	return &RSS{
		Version:   "2.0",
		ItunesNS:  itunesNamespace,
		PodcastNS: podcastNamespace,
		Channel:   channel,
	}
}

// WriteFile serializes the feed and writes it to path, replacing any
// existing file.
func WriteFile(feed *RSS, path string) error {
	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize feed: %w", err)
	}

	if err := os.WriteFile(path, []byte(xml.Header+string(out)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write feed file: %w", err)
	}
	return nil
}
