// Package sanitizer provides input normalization for venue and event data.
//
// All normalization functions are idempotent. Invalid input is handled
// gracefully, typically by returning empty strings or slices rather than
// errors, so callers can follow up with validation.
//
// Normalization includes:
//   - Phone numbers: convert to E.164 format (+[country][number])
//   - Names and titles: collapse whitespace, trim leading/trailing spaces
//   - Cities and labels: lowercase with special characters removed
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
