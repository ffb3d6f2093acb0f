// Package record defines the identified items held by a paginated view and
// their canonical textual rendering.
//
// A Record is opaque apart from its ID: Fields may hold any JSON-compatible
// value. Display renders a field for a table cell:
//
//   - strings are NFC normalised and returned verbatim
//   - nil renders as the empty string
//   - numbers use their shortest round-trip form
//   - maps and slices render as canonical JSON (RFC 8785 key order,
//     no HTML escaping)
//
// The same input always produces the same bytes, so rendered tables can be
// compared against golden files.
package record
