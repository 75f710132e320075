// Package api defines the wire-format types served by the captionrelay HTTP
// server and the converters that build them from transcript results.
//
// The basic /transcript response keeps the two historical shapes
// ({"transcript": ...} on success, {"error": ...} on failure) so existing
// clients keep working; the detail view adds source, language and the
// per-endpoint attempt history.
package api
