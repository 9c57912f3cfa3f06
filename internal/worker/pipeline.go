package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/finbrief/finbrief/internal/common"
	"github.com/finbrief/finbrief/internal/models"
)

// Pipeline runs one briefing end to end: fetch announcements, triage titles,
// analyze survivors, render the artifact. It is the body of the worker
// process launched by the server.
type Pipeline struct {
	feed       *FeedClient
	classifier *Classifier
	renderer   *Renderer
	maxFetches int
	logger     arbor.ILogger
}

// NewPipeline wires a briefing pipeline from configuration.
func NewPipeline(cfg *common.Config, logger arbor.ILogger) (*Pipeline, error) {
	if cfg.Announce.BaseURL == "" || cfg.Announce.APIKey == "" {
		return nil, fmt.Errorf("announcement feed is not configured")
	}

	classifier, err := NewClassifier(&cfg.Claude, logger)
	if err != nil {
		return nil, err
	}

	feed := NewFeedClient(cfg.Announce.BaseURL, cfg.Announce.APIKey,
		WithFeedLogger(logger),
		WithFeedRateLimit(cfg.Announce.RateLimit),
	)

	return &Pipeline{
		feed:       feed,
		classifier: classifier,
		renderer:   NewRenderer(),
		maxFetches: cfg.Announce.MaxPageFetches,
		logger:     logger,
	}, nil
}

// Run produces the briefing artifact at outputPath. The artifact appears
// atomically: it is written to a temp file first and renamed into place, so
// an observer never sees a partial briefing.
func (p *Pipeline) Run(ctx context.Context, startDate, endDate, outputPath string) error {
	announcements, err := p.feed.FetchAnnouncements(ctx, startDate, endDate)
	if err != nil {
		return fmt.Errorf("failed to fetch announcements: %w", err)
	}
	p.logger.Info().
		Int("count", len(announcements)).
		Str("date_start", startDate).
		Str("date_end", endDate).
		Msg("Fetched announcements")

	analyzed := p.classify(ctx, announcements)

	page, err := p.renderer.RenderBriefing(startDate, endDate, analyzed)
	if err != nil {
		return err
	}

	if err := writeArtifactAtomic(outputPath, []byte(page)); err != nil {
		return err
	}

	p.logger.Info().
		Str("output", outputPath).
		Int("analyzed", len(analyzed)).
		Msg("Briefing artifact written")
	return nil
}

// classify runs the two stages over the fetched announcements. Individual
// failures skip the announcement rather than failing the whole briefing.
func (p *Pipeline) classify(ctx context.Context, announcements []models.Announcement) []models.AnalyzedAnnouncement {
	var analyzed []models.AnalyzedAnnouncement
	fetches := 0

	for _, announcement := range announcements {
		if ctx.Err() != nil {
			break
		}

		relevant, err := p.classifier.TriageTitle(ctx, announcement)
		if err != nil {
			p.logger.Warn().Err(err).Str("title", announcement.ReportTitle).Msg("Skipping announcement, triage failed")
			continue
		}
		if !relevant {
			continue
		}

		if p.maxFetches > 0 && fetches >= p.maxFetches {
			p.logger.Warn().
				Int("max", p.maxFetches).
				Msg("Document fetch cap reached, remaining announcements skipped")
			break
		}
		fetches++

		text, err := p.feed.FetchDocumentText(ctx, announcement.DocumentURL)
		if err != nil {
			p.logger.Warn().Err(err).Str("url", announcement.DocumentURL).Msg("Skipping announcement, document fetch failed")
			continue
		}

		analysis, err := p.classifier.Analyze(ctx, announcement, text)
		if err != nil {
			p.logger.Warn().Err(err).Str("title", announcement.ReportTitle).Msg("Skipping announcement, analysis failed")
			continue
		}

		analyzed = append(analyzed, models.AnalyzedAnnouncement{
			Announcement: announcement,
			Analysis:     *analysis,
		})
	}

	return analyzed
}

// writeArtifactAtomic writes data to path via a temp file and rename. The
// supervisor treats artifact existence as completion, so partial files must
// never be visible under the final name.
func writeArtifactAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close artifact: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}
