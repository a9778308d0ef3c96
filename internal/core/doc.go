// Package core provides the business logic for salary table imports and lookups.
//
// This package is the heart of the service, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
//   - Normalizer: turns a wide CSV (one row per Entgeltgruppe, one column per
//     Stufe) into long-form [SalaryCell] records.
//   - Sort key: [GradeKeyOf] orders grade labels naturally ("E 9a" < "E 10").
//   - Importer: normalizes a source and hands the cells to a [Loader].
//   - Service: read-only lookups over a [Reader].
//
// # Table Profiles
//
// Known pay scales are registered at init time using [Register]. A profile
// supplies import defaults (grade column, region, validity date) so that a
// manifest entry only needs a file and a table name:
//
//	core.Register(core.TableProfile{
//	    Name:        "TV-L",
//	    Label:       "Tarifvertrag für den öffentlichen Dienst der Länder",
//	    GradeColumn: "Entgeltgruppe",
//	})
//
// # Error Handling
//
// Errors are classified with errors.Is / errors.As against [ErrNotFound],
// [ErrStorageUnavailable] and [*ValidationError]. [MapError] turns any error
// into a user-facing message with a support code:
//
//   - NF001: No matching salary cell
//   - VAL001-VAL004: Import or query validation errors
//   - STO001: Storage unavailable
//   - RATE001: Rate limited
//   - ERR000: Anything else
package core
