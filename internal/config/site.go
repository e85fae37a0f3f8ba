// Package config holds the scraper's application configuration: the site
// selector file and the run settings loaded from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"news-scraper/internal/usecase/scrape"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSiteConfig indicates that the site selector file is unusable.
var ErrInvalidSiteConfig = errors.New("invalid site config")

// OverlayConfig names one interstitial and the selector of its close control.
type OverlayConfig struct {
	Name     string `yaml:"name"`
	Selector string `yaml:"selector"`
}

// SiteConfig describes where the scraper finds things on the target site.
// Selectors are CSS selectors understood by both browser backends.
type SiteConfig struct {
	Overlays []OverlayConfig `yaml:"overlays"`

	Search struct {
		Mode            string `yaml:"mode"`
		Path            string `yaml:"path"`
		QueryParam      string `yaml:"query_param"`
		ButtonSelector  string `yaml:"button_selector"`
		InputSelector   string `yaml:"input_selector"`
		ResultsSelector string `yaml:"results_selector"`
		CountSelector   string `yaml:"count_selector"`
	} `yaml:"search"`

	Sort struct {
		Param string `yaml:"param"`
		Value string `yaml:"value"`
	} `yaml:"sort"`

	Card struct {
		Selector            string   `yaml:"selector"`
		TimestampSelector   string   `yaml:"timestamp_selector"`
		TimestampAttr       string   `yaml:"timestamp_attr"`
		TitleSelector       string   `yaml:"title_selector"`
		DescriptionSelector string   `yaml:"description_selector"`
		ImageSelector       string   `yaml:"image_selector"`
		ImageAttrs          []string `yaml:"image_attrs"`
	} `yaml:"card"`

	Pagination struct {
		NextSelector  string `yaml:"next_selector"`
		DisabledClass string `yaml:"disabled_class"`
	} `yaml:"pagination"`
}

// DefaultSiteConfig returns the selectors of the AP News search pages.
func DefaultSiteConfig() *SiteConfig {
	c := &SiteConfig{
		Overlays: []OverlayConfig{
			{Name: "marketing_modal", Selector: ".fancybox-close"},
			{Name: "consent_banner", Selector: "#onetrust-close-btn-container button"},
		},
	}

	c.Search.Mode = scrape.SearchModeURL
	c.Search.Path = "/search"
	c.Search.QueryParam = "q"
	c.Search.ButtonSelector = "button.SearchOverlay-search-button"
	c.Search.InputSelector = "input.SearchOverlay-search-input"
	c.Search.ResultsSelector = ".SearchResultsModule-results"
	c.Search.CountSelector = ".SearchResultsModule-count-desktop"

	c.Sort.Param = "s"
	c.Sort.Value = "3"

	c.Card.Selector = ".SearchResultsModule-results .PageList-items-item"
	c.Card.TimestampSelector = "bsp-timestamp[data-timestamp]"
	c.Card.TimestampAttr = "data-timestamp"
	c.Card.TitleSelector = ".PagePromo-title"
	c.Card.DescriptionSelector = ".PagePromo-description"
	c.Card.ImageSelector = "img.Image"
	c.Card.ImageAttrs = []string{"src", "data-src"}

	c.Pagination.NextSelector = ".Pagination-nextPage"
	return c
}

// LoadSiteConfig reads the YAML file at path over DefaultSiteConfig.
// Keys missing from the file keep their default. An empty path returns the defaults.
func LoadSiteConfig(path string) (*SiteConfig, error) {
	config := DefaultSiteConfig()
	if path == "" {
		return config, nil
	}

	// #nosec G304 -- path is provided by trusted source (CLI flag or environment)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse site config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that every selector the engine depends on is set.
func (c *SiteConfig) Validate() error {
	var missing []string
	required := map[string]string{
		"search.results_selector":   c.Search.ResultsSelector,
		"sort.param":                c.Sort.Param,
		"sort.value":                c.Sort.Value,
		"card.selector":             c.Card.Selector,
		"card.timestamp_selector":   c.Card.TimestampSelector,
		"card.timestamp_attr":       c.Card.TimestampAttr,
		"card.title_selector":       c.Card.TitleSelector,
		"card.description_selector": c.Card.DescriptionSelector,
		"card.image_selector":       c.Card.ImageSelector,
	}

	switch c.Search.Mode {
	case scrape.SearchModeURL:
		required["search.path"] = c.Search.Path
		required["search.query_param"] = c.Search.QueryParam
	case scrape.SearchModeForm:
		required["search.button_selector"] = c.Search.ButtonSelector
		required["search.input_selector"] = c.Search.InputSelector
	default:
		return fmt.Errorf("%w: search.mode must be %q or %q, got %q",
			ErrInvalidSiteConfig, scrape.SearchModeURL, scrape.SearchModeForm, c.Search.Mode)
	}

	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing %s", ErrInvalidSiteConfig, strings.Join(missing, ", "))
	}

	if len(c.Card.ImageAttrs) == 0 {
		return fmt.Errorf("%w: card.image_attrs must not be empty", ErrInvalidSiteConfig)
	}
	for i, o := range c.Overlays {
		if o.Selector == "" {
			return fmt.Errorf("%w: overlays[%d].selector is empty", ErrInvalidSiteConfig, i)
		}
	}
	return nil
}

// Selectors converts the configuration into the engine's selector set.
func (c *SiteConfig) Selectors() scrape.Selectors {
	overlays := make([]scrape.Overlay, 0, len(c.Overlays))
	for i, o := range c.Overlays {
		name := o.Name
		if name == "" {
			name = fmt.Sprintf("overlay_%d", i)
		}
		overlays = append(overlays, scrape.Overlay{Name: name, Selector: o.Selector})
	}

	return scrape.Selectors{
		Overlays:          overlays,
		SearchMode:        c.Search.Mode,
		SearchPath:        c.Search.Path,
		QueryParam:        c.Search.QueryParam,
		SearchButton:      c.Search.ButtonSelector,
		SearchInput:       c.Search.InputSelector,
		ResultsContainer:  c.Search.ResultsSelector,
		ResultCount:       c.Search.CountSelector,
		SortParam:         c.Sort.Param,
		SortValue:         c.Sort.Value,
		Card:              c.Card.Selector,
		Timestamp:         c.Card.TimestampSelector,
		TimestampAttr:     c.Card.TimestampAttr,
		Title:             c.Card.TitleSelector,
		Description:       c.Card.DescriptionSelector,
		Image:             c.Card.ImageSelector,
		ImageAttrs:        append([]string(nil), c.Card.ImageAttrs...),
		NextPage:          c.Pagination.NextSelector,
		NextDisabledClass: c.Pagination.DisabledClass,
	}
}
