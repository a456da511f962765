// Package batch runs one operation over many ids with bounded concurrency
// and collects per-item results, so a failure on one item never stops the
// others.
package batch
