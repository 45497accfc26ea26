// Package core provides the validation and selection engine for question lists.
//
// This package is the heart of testsheet, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Pipeline
//
// An uploaded question list flows through a fixed sequence of stages:
//
//  1. [Normalize] trims ordinary and full-width whitespace from every cell and
//     removes all whitespace from the identifier column
//  2. [CheckSequence] trims trailing blank rows and checks that identifiers are
//     whole numbers, and in [ModeStrict] exactly 1..N
//  3. [CheckCompleteness] reports blank question and answer cells
//  4. [Select] filters by identifier range, samples without replacement and
//     applies the [SortOrder]
//
// [Prepare] runs stages 1-3 and returns an immutable [Dataset]. Selection is a
// pure function of the dataset, the [SelectParams] and a random source.
//
// # Service
//
// [Service] ties the engine to file ingest and workbook export:
//
//	svc, _ := core.NewService(cfg)
//	ds, err := svc.Load(ctx, "words.xlsx", file)
//	gen, err := svc.Generate(ctx, ds, core.GenerateRequest{Params: params})
//	w.Write(gen.Data)
//
// Concurrent generations are bounded by a [GenerateLimiter].
//
// # Error Handling
//
// Validation failures are typed errors ([*FormatError], [*SequenceError],
// [*CompletenessError], [*RangeError]) that expose [Diagnostic] values with
// 1-based spreadsheet line numbers. Unreadable uploads surface as
// [*IngestError]. Every error can be mapped to a user-friendly message with a
// support code using [MapError]:
//
//   - VAL001-VAL005: Validation errors (identifiers, blanks)
//   - SEL001-SEL007: Selection errors (range, count, filter, order, parameters, sheet size)
//   - FILE001-FILE006: File errors (size, type, encoding)
//   - GEN001-GEN003: Generation errors (busy, timeout, cancelled)
package core
