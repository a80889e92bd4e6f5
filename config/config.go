// Package config loads the show metadata and station scraping
// parameters, with the production Car Talk values as defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pevans/cartalker/harvest"
	"github.com/pevans/cartalker/podcast"
)

// Show describes the program at the channel level.
type Show struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	Link        string `yaml:"link"`
	Language    string `yaml:"language"`
	Copyright   string `yaml:"copyright"`
	Author      string `yaml:"author"`
}

// Station describes how to scrape the listing endpoint.
type Station struct {
	ListingURL     string `yaml:"listing_url"`
	PageSize       int    `yaml:"page_size"`
	BitrateKbps    int    `yaml:"bitrate_kbps"`
	ProbeSizes     bool   `yaml:"probe_sizes"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Config is the full file configuration.
type Config struct {
	Show    Show    `yaml:"show"`
	Station Station `yaml:"station"`
}

// Default returns the configuration for the show this tool was built
// for: Car Talk, as hosted by NPR.
func Default() *Config {
	station := harvest.DefaultConfig()
	return &Config{
		Show: Show{
			Title:       "Car Talk",
			Description: "America's funniest auto mechanics take calls from weary car owners all over the country, and crack wise while they diagnose Dodges and dismiss Diahatsus. You don't have to know anything about cars to love this one hour weekly laugh fest.",
			Image:       "https://media.npr.org/assets/img/2022/09/23/car-talk_tile_npr-network-01_sq-94167386915fb364047a98214d2d737df21465b1.jpg?s=1400",
			Link:        "http://www.cartalk.com",
			Language:    "en",
			Copyright:   "Copyright 2001-2021 Tappet Brothers LLC - For Personal Use Only",
			Author:      "NPR",
		},
		Station: Station{
			ListingURL:     station.ListingURL,
			PageSize:       station.PageSize,
			BitrateKbps:    station.BitrateKbps,
			ProbeSizes:     station.ProbeSizes,
			UserAgent:      station.UserAgent,
			TimeoutSeconds: int(station.Timeout / time.Second),
		},
	}
}

// Load returns the configuration from the file at path, layered over
// the defaults so a partial file only overrides what it sets. An empty
// path falls back to ~/.cartalker/config.yaml, whose absence is not an
// error; an explicitly given path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(homeDir, ".cartalker", "config.yaml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// HarvestConfig maps the station settings onto the harvester.
func (s Station) HarvestConfig() harvest.Config {
	return harvest.Config{
		ListingURL:  s.ListingURL,
		PageSize:    s.PageSize,
		BitrateKbps: s.BitrateKbps,
		ProbeSizes:  s.ProbeSizes,
		UserAgent:   s.UserAgent,
		Timeout:     time.Duration(s.TimeoutSeconds) * time.Second,
	}
}

// PodcastShow maps the show settings onto the feed emitter.
func (s Show) PodcastShow() podcast.Show {
	return podcast.Show{
		Title:       s.Title,
		Description: s.Description,
		ImageURL:    s.Image,
		Link:        s.Link,
		Language:    s.Language,
		Copyright:   s.Copyright,
		Author:      s.Author,
	}
}
