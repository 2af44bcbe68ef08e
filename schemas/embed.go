// Package schemas embeds the JSON Schemas for the files apply-agent reads and writes.
package schemas

import _ "embed"

// Ledger is the schema of the applied-jobs ledger file.
//
//go:embed ledger.schema.json
var Ledger []byte

// RunSummary is the schema of the end-of-run summary written by `run --summary-file`.
//
//go:embed run_summary.schema.json
var RunSummary []byte
