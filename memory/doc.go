// Package memory provides the in-process semantic memory and cache:
// two embedding-addressed collections sharing one similarity primitive.
//
// The Cache is a short-lived query->results table: a lookup embeds the
// query and returns the first entry whose cosine similarity clears the
// hit threshold. The Store holds longer-lived observations
// (MemoryRecords) ranked by similarity on read, with a keyword-overlap
// fallback when embedding is unavailable.
//
// Both collections are volatile, process-wide, and bounded: the cache
// keeps the newest 100 entries, the store evicts its least recently
// accessed 10% when it passes 1,000 records. Neither offers cross-call
// isolation; concurrent identical requests may both miss and both
// insert, which is accepted for an optimization layer.
package memory
