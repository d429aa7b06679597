package entities

import "time"

// ReportInput is everything the renderer needs for one report.
type ReportInput struct {
	Company      string
	Email        string
	GeneratedAt  time.Time
	Signal       SignalLevel
	TypeLabel    string
	Narrative    string
	FallbackText string
	Scores       []CategoryScore
}

// ReportArtifact is a rendered report document.
type ReportArtifact struct {
	Filename    string
	ContentType string
	Content     []byte
}
