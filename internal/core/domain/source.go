package domain

import (
	"path"
	"regexp"
	"strings"
)

// SourceKind groups files in the sources browser. It never affects ranking.
type SourceKind string

// Source kinds, in display order.
const (
	SourceKindDaily    SourceKind = "daily"
	SourceKindMarkdown SourceKind = "markdown"
	SourceKindText     SourceKind = "text"
	SourceKindOther    SourceKind = "other"
)

// SourceKinds returns all kinds in display order.
func SourceKinds() []SourceKind {
	return []SourceKind{SourceKindDaily, SourceKindMarkdown, SourceKindText, SourceKindOther}
}

// IsValid returns true if the kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindDaily, SourceKindMarkdown, SourceKindText, SourceKindOther:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// Description returns a human-readable label.
func (k SourceKind) Description() string {
	switch k {
	case SourceKindDaily:
		return "Daily notes"
	case SourceKindMarkdown:
		return "Markdown"
	case SourceKindText:
		return "Text"
	case SourceKindOther:
		return "Other"
	default:
		return "Unknown"
	}
}

var dailyFileName = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`)

// IsDaily reports whether a relative path is a daily note: it sits under a
// "daily" directory at any depth, or its file name is YYYY-MM-DD.md.
func IsDaily(p string) bool {
	p = strings.ReplaceAll(p, "\\", "/")
	if dailyFileName.MatchString(path.Base(p)) {
		return true
	}
	segments := strings.Split(p, "/")
	for _, seg := range segments[:len(segments)-1] {
		if seg == "daily" {
			return true
		}
	}
	return false
}

// Classify returns the source kind of a relative path.
func Classify(p string) SourceKind {
	if IsDaily(p) {
		return SourceKindDaily
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".md":
		return SourceKindMarkdown
	case ".txt":
		return SourceKindText
	default:
		return SourceKindOther
	}
}

// FileStats are size statistics derived from a file's chunks.
type FileStats struct {
	Chunks       int `json:"chunks"`
	Characters   int `json:"characters"`
	Words        int `json:"words"`
	AvgChunkSize int `json:"avg_chunk_size"`
}

// SourceSummary aggregates the chunk records of one file.
type SourceSummary struct {
	File       string     `json:"file"`
	Title      string     `json:"title"`
	Kind       SourceKind `json:"kind"`
	ChunkCount int        `json:"chunks_count"`
	Tags       []string   `json:"tags"`
	Metadata   Metadata   `json:"metadata"`
	Stats      FileStats  `json:"stats"`
}

// IsDaily reports whether the source is classified as a daily note.
func (s SourceSummary) IsDaily() bool {
	return s.Kind == SourceKindDaily
}
