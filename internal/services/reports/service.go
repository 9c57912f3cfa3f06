package reports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/finbrief/finbrief/internal/common"
	"github.com/finbrief/finbrief/internal/models"
	"github.com/finbrief/finbrief/internal/services/supervisor"
)

// ConfigChecker is the slice of the config service the report service needs.
type ConfigChecker interface {
	CheckCredentials(ctx context.Context) (*models.ReportConfig, error)
	SetTicker(ctx context.Context, ticker, userInfo string) error
}

// BriefingParams are the caller-supplied parameters of a briefing launch.
// Both dates are "YYYY-MM-DD"; EndDate empty means a single-day briefing.
type BriefingParams struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
	Source    string `json:"source,omitempty"` // data source name, default "announcements"
}

// DefaultBriefingSource is the only data source currently bundled with the
// worker binary.
const DefaultBriefingSource = "announcements"

// InvestmentParams carry the synchronous pipeline request body.
type InvestmentParams struct {
	Ticker   string `json:"ticker"`
	UserInfo string `json:"user_info,omitempty"`
}

// InvestmentResult is the synchronous pipeline outcome.
type InvestmentResult struct {
	ReportURL string `json:"report_url"`
}

// Service launches briefing workers under supervisor management and runs the
// synchronous investment-report pipeline.
type Service struct {
	cfg       *common.Config
	checker   ConfigChecker
	registry  *supervisor.Registry
	artifacts *supervisor.ArtifactStore
	resolver  *supervisor.Resolver
	logger    arbor.ILogger

	// launchMu serializes preflight, id resolution, launch and registration
	// so two concurrent requests for the same window cannot both spawn a
	// worker. Registry.Register still rejects duplicates as a last line.
	launchMu sync.Mutex
}

func NewService(cfg *common.Config, checker ConfigChecker, logger arbor.ILogger) *Service {
	registry := supervisor.NewRegistry()
	artifacts := supervisor.NewArtifactStore(
		cfg.Reports.BriefingDir,
		cfg.Reports.BriefingURL,
		cfg.Reports.ArtifactExt,
	)
	return &Service{
		cfg:       cfg,
		checker:   checker,
		registry:  registry,
		artifacts: artifacts,
		resolver:  supervisor.NewResolver(registry, artifacts, logger),
		logger:    logger,
	}
}

// StartBriefing validates parameters, checks prerequisites and launches a
// briefing worker. It returns the deterministic task id without waiting for
// the worker; callers poll BriefingStatus with that id.
//
// A second launch for a window whose worker is still running returns
// supervisor.ErrConflict with the same id, so the caller can poll it instead.
func (s *Service) StartBriefing(ctx context.Context, params BriefingParams) (string, error) {
	if params.StartDate == "" {
		params.StartDate = time.Now().Format("2006-01-02")
	}
	if params.EndDate == "" {
		params.EndDate = params.StartDate
	}
	if params.Source == "" {
		params.Source = DefaultBriefingSource
	}
	if params.Source != DefaultBriefingSource {
		return "", fmt.Errorf("%w: unknown data source %q", supervisor.ErrInvalidParameters, params.Source)
	}

	taskID, err := supervisor.ResolveTaskID(s.cfg.Reports.BriefingIDPrefix, params.StartDate, params.EndDate)
	if err != nil {
		return "", err
	}

	reportCfg, err := s.checker.CheckCredentials(ctx)
	if err != nil {
		return taskID, err
	}

	s.launchMu.Lock()
	defer s.launchMu.Unlock()

	if s.registry.Running(taskID) {
		return taskID, fmt.Errorf("%w: task %s", supervisor.ErrConflict, taskID)
	}

	args := []string{
		"-source", params.Source,
		"-date-start", params.StartDate,
		"-date-end", params.EndDate,
		"-output", s.artifacts.Path(taskID),
	}
	if s.cfg.Worker.ConfigFile != "" {
		args = append(args, "-config", s.cfg.Worker.ConfigFile)
	}
	proc, err := supervisor.Launch(s.cfg.Worker.Command, args, s.cfg.Worker.WorkingDir, configEnv(reportCfg))
	if err != nil {
		s.logger.Error().Err(err).Str("task_id", taskID).Msg("Briefing worker launch failed")
		return taskID, err
	}

	if err := s.registry.Register(taskID, proc); err != nil {
		// Unreachable while launchMu is held; kill the duplicate if it happens.
		proc.Kill()
		return taskID, err
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("start_date", params.StartDate).
		Str("end_date", params.EndDate).
		Msg("Briefing worker launched")
	return taskID, nil
}

// BriefingStatus resolves the current state of a briefing task.
func (s *Service) BriefingStatus(taskID string) supervisor.Status {
	return s.resolver.Status(taskID)
}

// RunInvestmentReport updates the stored ticker, runs the report pipeline to
// completion under the configured timeout, and returns the URL of the newest
// artifact the pipeline produced.
func (s *Service) RunInvestmentReport(ctx context.Context, params InvestmentParams) (*InvestmentResult, error) {
	if params.Ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", supervisor.ErrInvalidParameters)
	}

	if err := s.checker.SetTicker(ctx, params.Ticker, params.UserInfo); err != nil {
		return nil, err
	}
	reportCfg, err := s.checker.CheckCredentials(ctx)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Pipeline.Timeout)
	defer cancel()

	started := time.Now()
	cmd := exec.CommandContext(runCtx, s.cfg.Pipeline.Command)
	cmd.Dir = s.cfg.Pipeline.WorkingDir
	cmd.Env = append(os.Environ(), configEnv(reportCfg)...)
	cmd.Env = append(cmd.Env,
		"FINBRIEF_REPORT_TICKER="+reportCfg.Ticker,
		"FINBRIEF_REPORT_USER_INFO="+reportCfg.UserInfo,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: pipeline exceeded %s timeout", supervisor.ErrWorkerFailure, s.cfg.Pipeline.Timeout)
		}
		s.logger.Error().Err(err).Str("ticker", params.Ticker).Msg("Investment pipeline failed")
		return nil, fmt.Errorf("%w: %s", supervisor.ErrWorkerFailure, summarizeOutput(output, err))
	}

	latest, err := supervisor.LocateLatest(s.cfg.Reports.InvestmentDir, "*"+s.cfg.Reports.ArtifactExt)
	if err != nil {
		return nil, fmt.Errorf("%w: pipeline exited successfully but produced no report", supervisor.ErrWorkerFailure)
	}

	s.logger.Info().
		Str("ticker", params.Ticker).
		Str("report", latest).
		Str("duration", time.Since(started).Round(time.Millisecond).String()).
		Msg("Investment report completed")

	investmentStore := supervisor.NewArtifactStore(
		s.cfg.Reports.InvestmentDir,
		s.cfg.Reports.InvestmentURL,
		s.cfg.Reports.ArtifactExt,
	)
	return &InvestmentResult{ReportURL: investmentStore.URLFor(latest)}, nil
}

// configEnv translates the stored report configuration into the environment
// variables the worker and pipeline binaries read at startup, so the
// credentials and model choices saved through the API reach every process
// this service spawns.
func configEnv(rc *models.ReportConfig) []string {
	env := []string{
		"FINBRIEF_ANNOUNCEMENTS_BASE_URL=" + rc.DataSource.ReportQueryURL,
		"FINBRIEF_ANNOUNCEMENTS_API_KEY=" + rc.DataSource.AccessToken,
	}
	if rc.LLM.FastModel != "" {
		env = append(env, "FINBRIEF_CLAUDE_FAST_MODEL="+rc.LLM.FastModel)
	}
	if rc.LLM.DeepModel != "" {
		env = append(env, "FINBRIEF_CLAUDE_DEEP_MODEL="+rc.LLM.DeepModel)
	}
	return env
}

func summarizeOutput(output []byte, err error) string {
	trimmed := string(output)
	if len(trimmed) > 512 {
		trimmed = trimmed[len(trimmed)-512:]
	}
	if trimmed == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s; %s", err.Error(), trimmed)
}
