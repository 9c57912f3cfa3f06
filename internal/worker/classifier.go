package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/finbrief/finbrief/internal/common"
	"github.com/finbrief/finbrief/internal/models"
)

const (
	triagePrompt = `You screen company announcements for an investor briefing.
Given an announcement title, answer YES if the announcement could plausibly
matter to investors (earnings, guidance, M&A, buybacks, dividends, major
contracts, management changes, regulatory actions) and NO otherwise
(routine filings, meeting notices, procedural notices). Answer with exactly
one word: YES or NO.`

	analysisPrompt = `You analyze a company announcement for an investor
briefing. Given the announcement text, respond with a single JSON object and
nothing else:
{"summary": "<2-3 sentence summary>", "importance": <integer 1-5>, "reason": "<one sentence on why it matters or not>"}
Importance 5 means market-moving, 1 means negligible.`

	// maxDocumentChars caps how much announcement text is sent per analysis
	// call. Long filings carry their substance up front.
	maxDocumentChars = 12000
)

// Classifier runs the two-stage announcement classification: a cheap title
// triage followed by full-text analysis of the survivors.
type Classifier struct {
	client      anthropic.Client
	fastModel   string
	deepModel   string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      arbor.ILogger
}

// NewClassifier creates a classifier from the Claude configuration.
func NewClassifier(cfg *common.ClaudeConfig, logger arbor.ILogger) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude api key is not configured")
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid claude timeout %q: %w", cfg.Timeout, err)
	}
	interval, err := time.ParseDuration(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid claude rate limit %q: %w", cfg.RateLimit, err)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
	)

	return &Classifier{
		client:      client,
		fastModel:   cfg.TriageModel(),
		deepModel:   cfg.AnalysisModel(),
		maxTokens:   int64(maxTokens),
		temperature: float64(cfg.Temperature),
		timeout:     timeout,
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		logger:      logger,
	}, nil
}

// TriageTitle runs the stage-1 title screen. It returns true when the
// announcement deserves full-text analysis.
func (c *Classifier) TriageTitle(ctx context.Context, announcement models.Announcement) (bool, error) {
	message := fmt.Sprintf("Company: %s\nTitle: %s", announcement.SecName, announcement.ReportTitle)

	text, err := c.complete(ctx, c.fastModel, triagePrompt, message)
	if err != nil {
		return false, fmt.Errorf("title triage failed: %w", err)
	}

	answer := strings.ToUpper(strings.TrimSpace(text))
	relevant := strings.HasPrefix(answer, "YES")

	c.logger.Debug().
		Str("title", announcement.ReportTitle).
		Str("answer", answer).
		Msg("Title triage")
	return relevant, nil
}

// Analyze runs the stage-2 full-text analysis and returns the structured
// assessment.
func (c *Classifier) Analyze(ctx context.Context, announcement models.Announcement, documentText string) (*models.Analysis, error) {
	if len(documentText) > maxDocumentChars {
		documentText = documentText[:maxDocumentChars]
	}
	message := fmt.Sprintf("Company: %s\nTitle: %s\nDate: %s\n\n%s",
		announcement.SecName, announcement.ReportTitle, announcement.ReportDate, documentText)

	text, err := c.complete(ctx, c.deepModel, analysisPrompt, message)
	if err != nil {
		return nil, fmt.Errorf("announcement analysis failed: %w", err)
	}

	analysis, err := parseAnalysis(text)
	if err != nil {
		return nil, fmt.Errorf("announcement analysis returned unusable output: %w", err)
	}
	return analysis, nil
}

func (c *Classifier) complete(ctx context.Context, model, system, message string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait interrupted: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
	}
	if c.temperature > 0 {
		params.Temperature = anthropic.Float(c.temperature)
	}

	resp, err := c.client.Messages.New(callCtx, params)
	if err != nil {
		return "", fmt.Errorf("claude api call failed: %w", err)
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	if builder.Len() == 0 {
		return "", fmt.Errorf("claude returned no text content")
	}
	return builder.String(), nil
}

// parseAnalysis extracts the JSON object from a model response. Models
// sometimes wrap the object in prose or code fences, so the parser takes the
// span between the first '{' and the last '}'.
func parseAnalysis(text string) (*models.Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &analysis); err != nil {
		return nil, fmt.Errorf("invalid analysis JSON: %w", err)
	}

	if analysis.Importance < 1 {
		analysis.Importance = 1
	}
	if analysis.Importance > 5 {
		analysis.Importance = 5
	}
	return &analysis, nil
}
