// Package language normalizes the language codes and labels that caption
// mirrors attach to their tracks.
//
// Mirrors disagree on format: one reports "en", another "en-US", and some
// only carry a human label such as "English (auto-generated)". ToISO2 and
// FromLabel fold these into ISO 639-1 codes; DisplayName goes the other way
// for CLI output.
package language
