// Package normalisers provides implementations of the Normaliser interface
// for the note formats of a notes root. Each normaliser knows how to split a
// file of a given extension into title, metadata and body text.
//
// Normalisers are registered with the Registry at startup.
package normalisers
