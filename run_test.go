package cartalker

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/cartalker/config"
	"github.com/pevans/cartalker/episode"
)

func noon(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func datedEpisode(date time.Time) episode.Episode {
	return episode.Episode{
		Title:    "Episode " + date.Format("2006-01-02"),
		PubDate:  date,
		Link:     "https://www.npr.org/" + date.Format("2006/01/02") + "/episode",
		AudioURL: "https://ondemand.npr.org/ct/ct" + date.Format("060102") + ".mp3?size=51550000",
		Duration: "3222",
		Size:     51550000,
	}
}

// TestMerge verifies existing episodes come first and harvested ones
// follow in reversed (chronological) order
func TestMerge(t *testing.T) {
	existing := []episode.Episode{
		datedEpisode(noon(2021, 1, 1)),
		datedEpisode(noon(2021, 1, 8)),
	}
	// Harvest order is newest-first.
	harvested := []episode.Episode{
		datedEpisode(noon(2021, 1, 29)),
		datedEpisode(noon(2021, 1, 22)),
		datedEpisode(noon(2021, 1, 15)),
	}

	final := Merge(existing, harvested)

	require.Len(t, final, 5)
	want := []time.Time{
		noon(2021, 1, 1), noon(2021, 1, 8), noon(2021, 1, 15),
		noon(2021, 1, 22), noon(2021, 1, 29),
	}
	for i, date := range want {
		assert.True(t, final[i].PubDate.Equal(date), "position %d", i)
	}
}

// TestMerge_NoExisting verifies a full harvest is simply reversed
func TestMerge_NoExisting(t *testing.T) {
	harvested := []episode.Episode{
		datedEpisode(noon(2021, 1, 15)),
		datedEpisode(noon(2021, 1, 8)),
		datedEpisode(noon(2021, 1, 1)),
	}

	final := Merge(nil, harvested)

	require.Len(t, final, 3)
	assert.True(t, final[0].PubDate.Equal(noon(2021, 1, 1)))
	assert.True(t, final[2].PubDate.Equal(noon(2021, 1, 15)))
}

// TestMerge_Empty verifies merging two empty sequences
func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))
}

// TestDefaultOutputPath verifies the timestamped file name
func TestDefaultOutputPath(t *testing.T) {
	now := time.Date(2021, 1, 29, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "cartalk_202101291504.xml", DefaultOutputPath(now))
}

// listingHTML renders one listing page with a row per date, newest
// first, in the station's markup.
func listingHTML(dates ...time.Time) string {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for _, date := range dates {
		title := "Episode " + date.Format("2006-01-02")
		link := "https://www.npr.org/" + date.Format("2006/01/02") + "/episode"
		audio := "https://ondemand.npr.org/ct/ct" + date.Format("060102") + ".mp3?size=51550000"
		fmt.Fprintf(&b, `<article class="item">`)
		fmt.Fprintf(&b, `<h2 class="title"><a href="%s">%s</a></h2>`, link, title)
		fmt.Fprintf(&b, `<p class="teaser"><time datetime="%s">a date</time>Teaser for %s.</p>`,
			date.Format("2006-01-02"), date.Format("2006-01-02"))
		fmt.Fprintf(&b, `<div class="audio-module-controls-wrap" data-audio='{"title":%q,"audioUrl":%q,"duration":3222}'></div>`,
			title, audio)
		fmt.Fprintf(&b, `</article>`)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

// TestRun_FullThenIncremental verifies the end-to-end pipeline: a full
// run writes a chronological feed, and a second run seeded from it only
// fetches the newer episodes and appends them in order
func TestRun_FullThenIncremental(t *testing.T) {
	page := listingHTML(noon(2021, 1, 15), noon(2021, 1, 8), noon(2021, 1, 1))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Station.ListingURL = server.URL + "/next?start=%d"

	dir := t.TempDir()
	first := filepath.Join(dir, "first.xml")
	require.NoError(t, Run(Options{OutputPath: first, Config: cfg}))

	parsed := parseFeed(t, first)
	require.Len(t, parsed.Items, 3)
	assert.Equal(t, "Episode 2021-01-01", parsed.Items[0].Title, "full run is oldest to newest")
	assert.Equal(t, "Episode 2021-01-15", parsed.Items[2].Title)

	// Two new episodes have since been published.
	page = listingHTML(noon(2021, 1, 29), noon(2021, 1, 22), noon(2021, 1, 15),
		noon(2021, 1, 8), noon(2021, 1, 1))

	second := filepath.Join(dir, "second.xml")
	require.NoError(t, Run(Options{InputPath: first, OutputPath: second, Config: cfg}))

	parsed = parseFeed(t, second)
	require.Len(t, parsed.Items, 5, "seed episodes plus the two newer ones, no duplicates")
	for i, day := range []int{1, 8, 15, 22, 29} {
		assert.Equal(t, fmt.Sprintf("Episode 2021-01-%02d", day), parsed.Items[i].Title, "position %d", i)
	}
}

// TestRun_MissingInput verifies a nonexistent seed file fails the run
func TestRun_MissingInput(t *testing.T) {
	dir := t.TempDir()
	err := Run(Options{
		InputPath:  filepath.Join(dir, "nope.xml"),
		OutputPath: filepath.Join(dir, "out.xml"),
		Config:     config.Default(),
	})

	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "out.xml"), "no partial feed on failure")
}

// TestRun_HarvestFailureWritesNothing verifies a failing harvest leaves
// no output file behind
func TestRun_HarvestFailureWritesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Station.ListingURL = server.URL + "/next?start=%d"

	out := filepath.Join(t.TempDir(), "out.xml")
	err := Run(Options{OutputPath: out, Config: cfg})

	require.Error(t, err)
	assert.NoFileExists(t, out)
}

func parseFeed(t *testing.T, path string) *gofeed.Feed {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	feed, err := gofeed.NewParser().Parse(f)
	require.NoError(t, err)
	return feed
}
