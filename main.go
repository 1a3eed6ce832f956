package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hn-order-checker/checker"
	"hn-order-checker/config"
	"hn-order-checker/logger"
	"hn-order-checker/scraper"
)

// Spacing between plain HTTP requests to the listing
const httpRequestDelay = time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	log := logger.New("hn-order-checker")
	cfg := loadConfig(*configPath, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	s, err := newScraper(cfg, log)
	if err != nil {
		log.Error("An error occurred", "kind", checker.FailureAutomation, "error", err)
		return
	}

	outcome, err := checker.Run(ctx, checker.Options{
		BaseURL:     config.BaseURL,
		StartURL:    config.NewestURL,
		Target:      config.TargetCount,
		ResultsPath: config.ResultsPath,
		Policy:      cfg.Validation.MissingTimestamp,
		KeepOpen:    cfg.Browser.KeepOpen,
		Out:         os.Stdout,
		Logger:      log,
	}, s)
	if err != nil {
		log.Error("An error occurred", "kind", checker.Classify(err), "error", err)
		return
	}

	if outcome.LeftOpen {
		log.Info("Browser remains open for inspection, press Ctrl+C to exit")
		<-ctx.Done()
		if err := s.Close(); err != nil {
			log.Warn("Failed to close browser", "error", err)
		}
	}
}

func loadConfig(configPath string, log *slog.Logger) *config.Config {
	if _, err := os.Stat(configPath); err != nil {
		log.Info("Config file not found. Using default configuration.", "path", configPath)
		return config.GetDefaultConfig()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Warn("Failed to load config file. Using defaults.", "path", configPath, "error", err)
		return config.GetDefaultConfig()
	}
	return cfg
}

func newScraper(cfg *config.Config, log *slog.Logger) (scraper.Scraper, error) {
	if cfg.Browser.Backend == config.BackendHTTP {
		return scraper.NewCollyScraper(cfg.Browser.PageTimeout, httpRequestDelay), nil
	}

	return scraper.NewRodScraper(scraper.RodOptions{
		Headless:    cfg.Browser.Headless,
		Bin:         cfg.Browser.Bin,
		PageTimeout: cfg.Browser.PageTimeout,
	}, log)
}
