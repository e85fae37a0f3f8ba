package main

import (
	"fmt"
	"strings"
	"time"

	"news-scraper/internal/config"
	"news-scraper/internal/domain/entity"

	"github.com/spf13/cobra"
)

// cliFlags holds the command line overrides. Only flags set explicitly replace
// the value loaded from the environment.
type cliFlags struct {
	phrase      string
	delta       string
	output      string
	outputFile  string
	backend     string
	browserPath string
	headful     bool
	attempts    int
	maxPages    int
	pageDelay   time.Duration
	timezone    string
	siteConfig  string
	logFormat   string
}

func (f *cliFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.phrase, "phrase", "p", "", "search phrase (env SEARCH_PHRASE)")
	fs.StringVarP(&f.delta, "delta", "d", "", "number of months to cover, 0 or 1 for the current month (env SEARCH_DELTA)")
	fs.StringVarP(&f.output, "output", "o", "", "output directory (env OUTPUT_DIR)")
	fs.StringVar(&f.outputFile, "output-file", "", "spreadsheet file name (env OUTPUT_FILE)")
	fs.StringVar(&f.backend, "backend", "", "browser backend: chrome or static (env BROWSER_BACKEND)")
	fs.StringVar(&f.browserPath, "browser-path", "", "Chrome binary (env BROWSER_PATH)")
	fs.BoolVar(&f.headful, "headful", false, "show the browser window")
	fs.IntVar(&f.attempts, "attempts", 0, "session attempts before giving up (env MAX_ATTEMPTS)")
	fs.IntVar(&f.maxPages, "max-pages", 0, "result pages to read, 0 for no limit (env MAX_PAGES)")
	fs.DurationVar(&f.pageDelay, "page-delay", 0, "pause after each page turn (env PAGE_DELAY)")
	fs.StringVar(&f.timezone, "timezone", "", "IANA zone for dates (env SCRAPER_TIMEZONE)")
	fs.StringVar(&f.siteConfig, "site-config", "", "YAML selector file (env SITE_CONFIG)")
	fs.StringVar(&f.logFormat, "log-format", "text", "log format: text or json")
}

// apply copies explicitly set flags onto cfg.
func (f *cliFlags) apply(cmd *cobra.Command, cfg *config.ScraperConfig) error {
	changed := cmd.Flags().Changed

	if changed("phrase") {
		cfg.SearchPhrase = strings.TrimSpace(f.phrase)
	}
	if changed("delta") {
		delta, err := entity.ParseDelta(f.delta)
		if err != nil {
			return err
		}
		cfg.Delta = delta
	}
	if changed("output") {
		cfg.OutputDir = f.output
	}
	if changed("output-file") {
		cfg.OutputFile = f.outputFile
	}
	if changed("backend") {
		cfg.BrowserBackend = strings.ToLower(f.backend)
	}
	if changed("browser-path") {
		cfg.BrowserPath = f.browserPath
	}
	if changed("headful") {
		cfg.Headless = !f.headful
	}
	if changed("attempts") {
		cfg.MaxAttempts = f.attempts
	}
	if changed("max-pages") {
		cfg.MaxPages = f.maxPages
	}
	if changed("page-delay") {
		if f.pageDelay < 0 {
			return fmt.Errorf("page delay must not be negative, got %v", f.pageDelay)
		}
		cfg.PageDelay = f.pageDelay
	}
	if changed("timezone") {
		cfg.Timezone = f.timezone
	}
	if changed("site-config") {
		cfg.SiteConfigPath = f.siteConfig
	}
	return nil
}
