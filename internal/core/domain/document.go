package domain

import (
	"path"
	"strings"
	"time"
)

// RawNote is a file read from the notes root, before normalisation.
type RawNote struct {
	// Path is the slash-separated path relative to the notes root.
	Path string

	// Content is the raw file bytes.
	Content []byte

	// Size and ModTime come from the file's stat at scan time.
	Size    int64
	ModTime time.Time
}

// Ext returns the lower-cased file extension including the dot.
func (r *RawNote) Ext() string {
	return strings.ToLower(path.Ext(r.Path))
}

// Note is a normalised document: metadata separated from body text.
type Note struct {
	// Path is the slash-separated path relative to the notes root.
	Path string

	// Title is the metadata title, or the filename stem.
	Title string

	// Body is the text handed to the chunker, header stripped.
	Body string

	// Metadata holds the parsed header block. Empty, never nil.
	Metadata Metadata
}

// ChunkRecord is the atomic retrievable unit.
// (File, ChunkIndex) is unique within a corpus.
type ChunkRecord struct {
	File       string   `json:"file"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	ChunkIndex int      `json:"chunk_index"`
	Metadata   Metadata `json:"metadata"`
}

// Stem returns the file name without directory or extension.
func (r ChunkRecord) Stem() string {
	return FileStem(r.File)
}

// FileStem returns the base name of p without its extension.
func FileStem(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
