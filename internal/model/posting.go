package model

import "time"

// Source identifies the job board a posting was captured from.
type Source string

const (
	SourceLinkedIn     Source = "LinkedIn"
	SourceIndeed       Source = "Indeed"
	SourceGlassdoor    Source = "Glassdoor"
	SourceMonster      Source = "Monster"
	SourceZipRecruiter Source = "ZipRecruiter"
	SourceUnknown      Source = "Unknown"
)

// JobPosting is the normalized record produced by one page capture.
type JobPosting struct {
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Source      Source    `json:"source"`
	URL         string    `json:"url"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Recipe maps each logical posting field to a CSS selector for one job board.
type Recipe struct {
	Source      Source
	Title       string
	Company     string
	Location    string
	Description string
}
