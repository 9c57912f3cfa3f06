package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - report generation
	mux.HandleFunc("/api/run/daily-briefing", s.app.ReportHandler.RunBriefingHandler)
	mux.HandleFunc("/api/run/investment-report", s.app.ReportHandler.RunInvestmentReportHandler)
	mux.HandleFunc("/api/tasks/", s.app.ReportHandler.TaskStatusHandler)

	// API routes - configuration
	mux.HandleFunc("/api/config", s.app.ConfigHandler.Handle)

	// API routes - service info
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	// Static artifact serving. Completed briefings and investment reports
	// are plain files; their URLs come back from the status endpoints.
	s.mountArtifactDir(mux, s.app.Config.Reports.BriefingURL, s.app.Config.Reports.BriefingDir)
	s.mountArtifactDir(mux, s.app.Config.Reports.InvestmentURL, s.app.Config.Reports.InvestmentDir)

	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

func (s *Server) mountArtifactDir(mux *http.ServeMux, urlPrefix, dir string) {
	prefix := strings.TrimRight(urlPrefix, "/") + "/"
	mux.Handle(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(dir))))
}
