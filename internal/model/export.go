package model

import "time"

// ExportVersion is written into every export and accepted on import.
const ExportVersion = "1.0.0"

type DataExport struct {
	Version    string         `json:"version"`
	ExportDate time.Time      `json:"exportDate"`
	Metadata   ExportMetadata `json:"metadata"`
	Categories []Category     `json:"categories"`
}

type ExportMetadata struct {
	TotalCategories int `json:"totalCategories"`
	TotalTodos      int `json:"totalTodos"`
	ActiveTodos     int `json:"activeTodos"`
	CompletedTodos  int `json:"completedTodos"`
}

// MergeStrategy decides how imported categories meet existing ones.
type MergeStrategy string

const (
	MergeReplace      MergeStrategy = "replace"
	MergeCombine      MergeStrategy = "merge"
	MergeKeepExisting MergeStrategy = "keep-existing"
)

type ImportResult struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Imported *ImportCounts `json:"imported,omitempty"`
	Errors   []string      `json:"errors,omitempty"`
}

type ImportCounts struct {
	Categories int `json:"categories"`
	Todos      int `json:"todos"`
}
