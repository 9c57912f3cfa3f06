package models

// ReportConfig is the persisted pipeline configuration edited through the
// config API. The report service exports it as FINBRIEF_* environment
// variables to every worker and pipeline process it spawns, so changes take
// effect on the next launch without a restart.
type ReportConfig struct {
	LLM        LLMSettings        `json:"llm"`
	DataSource DataSourceSettings `json:"dataSource"`
	Ticker     string             `json:"ticker" validate:"required"`
	UserInfo   string             `json:"userInfo"`
}

// LLMSettings selects the models used by the two classification stages.
type LLMSettings struct {
	Provider  string `json:"provider" validate:"required,oneof=claude"`
	FastModel string `json:"fastModel"` // Stage 1 triage model; empty means service default
	DeepModel string `json:"deepModel"` // Stage 2 analysis model; empty means service default
}

// DataSourceSettings holds the announcement feed credentials. These are the
// prerequisite configuration checked before any briefing launch.
type DataSourceSettings struct {
	AccessToken    string `json:"accessToken" validate:"required"`
	ReportQueryURL string `json:"reportQueryUrl" validate:"required,url"`
}

// HasCredentials reports whether the feed credentials needed by the briefing
// worker are present.
func (c *ReportConfig) HasCredentials() bool {
	return c != nil && c.DataSource.AccessToken != "" && c.DataSource.ReportQueryURL != ""
}
