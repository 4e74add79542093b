// Package ingest provides the import engine for Canon.
//
// It parses per-source ranking files, bulk figure datasets, and alias
// seed files, resolves raw names to canonical figure ids through the
// alias cascade, and writes the resulting rows to the store. Names the
// cascade cannot resolve are reported in a plain-text artifact next to
// the input file, never auto-inserted as figures.
package ingest
