package models

// Announcement is one filing record from the announcement feed.
type Announcement struct {
	SecName     string `json:"secName"`
	ReportTitle string `json:"reportTitle"`
	ReportDate  string `json:"reportDate"`
	DocumentURL string `json:"documentUrl"`
}

// Analysis is the stage-2 classification result for one announcement.
// Importance is a 1-5 score; 3 and above makes the briefing.
type Analysis struct {
	Summary    string `json:"summary"`
	Importance int    `json:"importance"`
	Reason     string `json:"reason"`
}

// AnalyzedAnnouncement pairs an announcement with its classification.
type AnalyzedAnnouncement struct {
	Announcement
	Analysis
}

// BriefingImportanceThreshold is the minimum importance score for an
// announcement to appear in the rendered briefing.
const BriefingImportanceThreshold = 3
