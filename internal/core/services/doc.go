// Package services implements the driving port interfaces.
// Services contain the retrieval logic and orchestrate calls to driven
// ports (adapters): the note source, encoders, generators and caches.
//
// CorpusService owns the loaded snapshot. Search, assistant, source and
// link services read from it and never mutate it.
package services
