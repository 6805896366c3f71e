package domain

import (
	"fmt"
	"time"
)

// LoadWarning reports a file that was skipped during a corpus load.
type LoadWarning struct {
	File string
	Err  error
}

// Error implements error so warnings can be logged or joined.
func (w LoadWarning) Error() string {
	return fmt.Sprintf("%s: %v", w.File, w.Err)
}

// Unwrap returns the underlying cause.
func (w LoadWarning) Unwrap() error {
	return w.Err
}

// Corpus is the ordered chunk collection produced by one load of a notes root.
// It is never mutated after construction; a reload builds a new Corpus.
type Corpus struct {
	// Root is the notes directory the corpus was loaded from.
	Root string

	// Fingerprint identifies the file set (paths, sizes, mtimes) that was read.
	Fingerprint string

	// Notes are the parsed files, in scan order. A note with a blank body
	// has no records but is still a link target and a listed source.
	Notes []Note

	// Records are grouped by file in scan order, chunks in document order.
	Records []ChunkRecord

	// Warnings lists files that could not be read or parsed.
	Warnings []LoadWarning
}

// Len returns the number of chunk records.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}

// Files returns each distinct file once: parsed notes in scan order, then
// any record file without a note. Notes with a blank body are included.
func (c *Corpus) Files() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var files []string
	add := func(f string) {
		if _, ok := seen[f]; ok {
			return
		}
		seen[f] = struct{}{}
		files = append(files, f)
	}
	for i := range c.Notes {
		add(c.Notes[i].Path)
	}
	for i := range c.Records {
		add(c.Records[i].File)
	}
	return files
}

// RecordsFor returns the chunk records of one file in chunk order.
func (c *Corpus) RecordsFor(file string) []ChunkRecord {
	if c == nil {
		return nil
	}
	var out []ChunkRecord
	for i := range c.Records {
		if c.Records[i].File == file {
			out = append(out, c.Records[i])
		}
	}
	return out
}

// Note returns the parsed note for file.
func (c *Corpus) Note(file string) (*Note, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Notes {
		if c.Notes[i].Path == file {
			return &c.Notes[i], true
		}
	}
	return nil, false
}

// Index pairs one embedding vector with each chunk record, by position.
// len(Vectors) == len(Records) always holds.
type Index struct {
	// Model is the embedding model that produced the vectors.
	Model string

	// Dimensions is the vector length, 0 for an empty index.
	Dimensions int

	Vectors [][]float32
	Records []ChunkRecord
}

// Len returns the number of indexed chunks.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.Records)
}

// Empty reports whether there is nothing to rank.
func (i *Index) Empty() bool {
	return i.Len() == 0
}

// Snapshot is a corpus and its index, loaded together and swapped as a unit.
type Snapshot struct {
	// ID is unique per load.
	ID string

	Corpus   *Corpus
	Index    *Index
	LoadedAt time.Time
}
