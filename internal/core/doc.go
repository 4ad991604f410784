// Package core contains the market-share pipeline, independent of any file
// format, store or transport. It is used by the web handlers and the CLI
// without modification.
//
// # Data Flow
//
//	RawGrid ─Parse─▶ []LongRecord ─BuildCurrent─▶ Table ─Mapping.Apply─▶ Table
//	                                                                      │
//	history Table ─────────────────────────────────────────────── Merge ◀─┘
//	                                                                │
//	                              FinalTable ◀─NewFinalTable─ Compute
//
// [Pipeline.Run] performs the whole chain for one snapshot.
//
// # Grid Parsing
//
// The monthly report is a pivot whose header text lives on fixed rows
// described by [HeaderLayout]. [Parse] finds the region column by its
// PROVINSI marker, reads one descriptor per data column and emits one
// [LongRecord] per region row and Bag or Bulk column. Structural problems
// return a [*StructureError] and no records.
//
// # Metrics
//
// [Compute] deduplicates the combined table, then derives market share,
// MoM, YoY and YtD growth, and the total-based year-to-date share MSY. A
// zero share denominator yields NaN for the affected rows and is listed in
// [Result.Indeterminate]; [Result.Err] turns that into an
// [*IndeterminateShareError].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - GRID001-GRID003: report structure
//   - SHR001: indeterminate share
//   - PER001: period out of range
//   - VAL001-VAL003: table validation
//   - FILE001-FILE004: uploaded files
//   - RUN001-RUN003: run cancellation, saturation and timeout
//   - DB001-DB003: history store
//   - RATE001: rate limiting
//   - ERR000: unknown (check logs)
package core
