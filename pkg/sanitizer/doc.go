// Package sanitizer normalizes listing and bid text before validation
// and storage.
//
// All functions are idempotent - applying them multiple times produces
// the same result. Invalid input is handled gracefully, typically by
// returning empty strings or empty slices rather than errors.
//
// Normalization includes:
//   - Free text: collapse whitespace, strip control characters
//   - Species/search keys: lowercase, letters only - "Blue Sapphire" becomes "bluesapphire"
//   - URLs: enforce HTTPS, lowercase domains, drop tracking parameters
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
