package entities

import (
	"strconv"
)

// RecordColumns is the fixed column order of a diagnosis record. Every
// store writes records in exactly this order.
var RecordColumns = []string{
	"timestamp",
	"company",
	"email",
	"category_scores",
	"total_score",
	"type_label",
	"ai_comment",
	"utm_source",
	"utm_campaign",
	"pdf_url",
	"app_version",
	"status",
	"ai_comment_len",
	"risk_level",
	"entry_check",
	"report_date",
}

// DiagnosisRecord is the persisted projection of a completed submission.
type DiagnosisRecord struct {
	Timestamp      string  `json:"timestamp" db:"timestamp"`
	Company        string  `json:"company" db:"company"`
	Email          string  `json:"email" db:"email"`
	CategoryScores string  `json:"category_scores" db:"category_scores"`
	TotalScore     float64 `json:"total_score" db:"total_score"`
	TypeLabel      string  `json:"type_label" db:"type_label"`
	AIComment      string  `json:"ai_comment" db:"ai_comment"`
	UTMSource      string  `json:"utm_source" db:"utm_source"`
	UTMCampaign    string  `json:"utm_campaign" db:"utm_campaign"`
	PDFURL         string  `json:"pdf_url" db:"pdf_url"`
	AppVersion     string  `json:"app_version" db:"app_version"`
	Status         string  `json:"status" db:"status"`
	AICommentLen   int     `json:"ai_comment_len" db:"ai_comment_len"`
	RiskLevel      string  `json:"risk_level" db:"risk_level"`
	EntryCheck     string  `json:"entry_check" db:"entry_check"`
	ReportDate     string  `json:"report_date" db:"report_date"`
}

// Values returns the record's cells in RecordColumns order.
func (r *DiagnosisRecord) Values() []string {
	return []string{
		r.Timestamp,
		r.Company,
		r.Email,
		r.CategoryScores,
		strconv.FormatFloat(r.TotalScore, 'f', 2, 64),
		r.TypeLabel,
		r.AIComment,
		r.UTMSource,
		r.UTMCampaign,
		r.PDFURL,
		r.AppVersion,
		r.Status,
		strconv.Itoa(r.AICommentLen),
		r.RiskLevel,
		r.EntryCheck,
		r.ReportDate,
	}
}
