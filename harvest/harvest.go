// Package harvest paginates the station's episode listing endpoint and
// turns its markup into canonical episodes.
package harvest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pevans/cartalker/episode"
)

// Listing rows are built from three parallel tag collections that are
// only related by position, so the selectors are fixed together here.
const (
	titleSelector  = "h2.title"
	teaserSelector = "p.teaser"
	audioSelector  = "div.audio-module-controls-wrap"
)

// ErrMisaligned indicates a listing page whose three tag collections
// have different lengths. Zipping them anyway would pair titles with
// the wrong audio metadata, so the harvest fails instead.
var ErrMisaligned = errors.New("listing page tag collections are misaligned")

// Config holds the station-specific harvesting parameters.
type Config struct {
	// ListingURL is a printf template taking the numeric start offset
	// of a page.
	ListingURL string

	// PageSize is the number of episode rows a full listing page
	// carries.
	PageSize int

	// BitrateKbps is the bitrate used to estimate file sizes when the
	// audio URL does not state one.
	BitrateKbps int

	// ProbeSizes asks the CDN for the Content-Length of each audio
	// asset whose URL carries no size parameter. Off by default: it
	// costs one round trip per episode and the estimate is close
	// enough for enclosure lengths.
	ProbeSizes bool

	UserAgent string
	Timeout   time.Duration
}

// DefaultConfig returns the production Car Talk listing parameters.
func DefaultConfig() Config {
	return Config{
		ListingURL:  "https://www.npr.org/get/510208/render/partial/next?start=%d",
		PageSize:    24,
		BitrateKbps: 128,
		UserAgent:   "cartalker/1.0 (podcast feed generator)",
		Timeout:     10 * time.Second,
	}
}

// Harvester crawls the listing endpoint one page at a time.
type Harvester struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
}

// New returns a harvester for the given configuration. A nil logger
// disables progress logging.
func New(cfg Config, logger *slog.Logger) *Harvester {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Harvester{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logger,
	}
}

// row is one positionally aligned triple from a listing page. A row
// without a link is a premium episode this tool cannot reach.
type row struct {
	link      string
	date      string
	teaser    string
	dataAudio string
}

// audioData is the JSON payload embedded in a row's audio controls tag.
type audioData struct {
	Title    string `json:"title"`
	AudioURL string `json:"audioUrl"`
	Duration int    `json:"duration"`
}

// Harvest pages through the listing newest-first and returns every
// episode published after cutoff, in the order encountered (newest
// first). A nil cutoff harvests the full history. The crawl stops at
// the first page with fewer rows than a full page, or as soon as an
// episode at or before the cutoff is seen.
//
// Any network or structural failure aborts the harvest; a partial
// result is never returned alongside an error.
func (h *Harvester) Harvest(cutoff *time.Time) ([]episode.Episode, error) {
	var episodes []episode.Episode

	pages := 0
	for start := 0; ; start += h.cfg.PageSize {
		doc, err := h.fetchPage(start)
		if err != nil {
			return nil, err
		}

		rows, err := extractRows(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse listing page at offset %d: %w", start, err)
		}

		pages++
		h.log.Debug("fetched listing page", "start", start, "rows", len(rows))

		// The fullness check counts rows present on the page, not
		// episodes emitted: a skipped premium row must not make a full
		// page look like the last one.
		lastPage := len(rows) < h.cfg.PageSize

		for _, r := range rows {
			if r.link == "" {
				h.log.Debug("skipping inaccessible episode", "date", r.date)
				continue
			}

			pubDate, err := episode.ParseListingDate(r.date)
			if err != nil {
				return nil, fmt.Errorf("failed to parse listing page at offset %d: %w", start, err)
			}

			if cutoff != nil && !pubDate.After(*cutoff) {
				h.log.Info("harvest reached cutoff", "cutoff", *cutoff, "episodes", len(episodes), "pages", pages)
				return episodes, nil
			}

			ep, err := h.rowToEpisode(r)
			if err != nil {
				return nil, fmt.Errorf("failed to parse listing page at offset %d: %w", start, err)
			}
			episodes = append(episodes, ep)
		}

		if lastPage {
			break
		}
	}

	h.log.Info("harvest complete", "episodes", len(episodes), "pages", pages)
	return episodes, nil
}

// fetchPage retrieves and parses one listing page. The endpoint's
// start parameter is 1-based while the crawl offset is 0-based.
func (h *Harvester) fetchPage(start int) (*goquery.Document, error) {
	pageURL := fmt.Sprintf(h.cfg.ListingURL, start+1)

	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", h.cfg.UserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}
	return doc, nil
}

// extractRows zips the page's three tag collections index-by-index.
func extractRows(doc *goquery.Document) ([]row, error) {
	titles := doc.Find(titleSelector)
	teasers := doc.Find(teaserSelector)
	audio := doc.Find(audioSelector)

	if titles.Length() != teasers.Length() || teasers.Length() != audio.Length() {
		return nil, fmt.Errorf("%w: %d titles, %d teasers, %d audio blocks",
			ErrMisaligned, titles.Length(), teasers.Length(), audio.Length())
	}

	rows := make([]row, 0, teasers.Length())
	for i := 0; i < teasers.Length(); i++ {
		var r row

		// No link means a premium episode; leave the row empty apart
		// from the date so the skip can be logged.
		r.link, _ = titles.Eq(i).Find("a").First().Attr("href")
		r.date, _ = teasers.Eq(i).Find("time").First().Attr("datetime")
		r.dataAudio, _ = audio.Eq(i).Attr("data-audio")

		// Drop the nested time tag and keep the teaser's own text.
		teaser := teasers.Eq(i).Clone()
		teaser.Children().Remove()
		r.teaser = strings.TrimSpace(teaser.Text())

		rows = append(rows, r)
	}

	return rows, nil
}

// rowToEpisode decodes the row's embedded audio JSON, resolves the file
// size, and normalizes the result.
func (h *Harvester) rowToEpisode(r row) (episode.Episode, error) {
	var data audioData
	if err := json.Unmarshal([]byte(r.dataAudio), &data); err != nil {
		return episode.Episode{}, fmt.Errorf("failed to decode audio metadata for %s: %w", r.link, err)
	}

	size, ok := episode.SizeFromAudioURL(data.AudioURL)
	if !ok && h.cfg.ProbeSizes {
		size = h.probeSize(data.AudioURL)
	}

	return episode.Normalize(episode.Raw{
		Title:    data.Title,
		Teaser:   r.teaser,
		Link:     r.link,
		Date:     r.date,
		AudioURL: data.AudioURL,
		Duration: data.Duration,
		Size:     size,
	}, h.cfg.BitrateKbps)
}

// probeSize asks the CDN for the byte length of an audio asset. Any
// failure returns zero, which leaves the estimate in charge.
func (h *Harvester) probeSize(audioURL string) int64 {
	req, err := http.NewRequest(http.MethodHead, audioURL, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("User-Agent", h.cfg.UserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Debug("size probe failed", "url", audioURL, "error", err)
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || resp.ContentLength <= 0 {
		return 0
	}
	return resp.ContentLength
}
