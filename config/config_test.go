package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault verifies the baked-in Car Talk configuration
func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "Car Talk", cfg.Show.Title)
	assert.Equal(t, "NPR", cfg.Show.Author)
	assert.Equal(t, "http://www.cartalk.com", cfg.Show.Link)
	assert.Equal(t, 24, cfg.Station.PageSize)
	assert.Equal(t, 128, cfg.Station.BitrateKbps)
	assert.False(t, cfg.Station.ProbeSizes)
	assert.Contains(t, cfg.Station.ListingURL, "npr.org")
}

// TestLoad_PartialOverride verifies a file only overrides the fields it
// sets
func TestLoad_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
show:
  title: Best of Car Talk
station:
  listing_url: http://localhost:8080/next?start=%d
  probe_sizes: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "Best of Car Talk", cfg.Show.Title)
	assert.Equal(t, "NPR", cfg.Show.Author, "unset fields keep their defaults")
	assert.Equal(t, "http://localhost:8080/next?start=%d", cfg.Station.ListingURL)
	assert.True(t, cfg.Station.ProbeSizes)
	assert.Equal(t, 24, cfg.Station.PageSize, "unset fields keep their defaults")
}

// TestLoad_ExplicitPathMissing verifies an explicitly given path must
// exist
func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestLoad_BadYAML verifies unparseable config files are rejected
func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("show: [not: a: mapping"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

// TestHarvestConfig verifies the station-to-harvester mapping
func TestHarvestConfig(t *testing.T) {
	station := Station{
		ListingURL:     "http://localhost/next?start=%d",
		PageSize:       4,
		BitrateKbps:    64,
		ProbeSizes:     true,
		UserAgent:      "test",
		TimeoutSeconds: 5,
	}

	hc := station.HarvestConfig()

	assert.Equal(t, station.ListingURL, hc.ListingURL)
	assert.Equal(t, 4, hc.PageSize)
	assert.Equal(t, 64, hc.BitrateKbps)
	assert.True(t, hc.ProbeSizes)
	assert.Equal(t, 5*time.Second, hc.Timeout)
}

// TestPodcastShow verifies the show-to-emitter mapping
func TestPodcastShow(t *testing.T) {
	show := Default().Show.PodcastShow()

	assert.Equal(t, "Car Talk", show.Title)
	assert.Equal(t, "NPR", show.Author)
	assert.Equal(t, Default().Show.Image, show.ImageURL)
}
