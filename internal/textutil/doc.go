// Package textutil provides the text normalization and fuzzy similarity
// primitives used for catalog matching.
//
// The primary use cases are:
//   - Normalizing free text into comparison form (accents folded, lower-cased,
//     punctuation collapsed) and compact comparison keys
//   - Tokenizing normalized text for candidate recall
//   - Scoring two strings in [0,1] with Levenshtein ratios over both the raw
//     and token-sorted forms
//   - Sanitizing identifiers for safe use as file names
package textutil
