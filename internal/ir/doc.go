// Package ir defines the serializable graph definition and its
// canonical JSON form.
//
// A GraphDef is the authoring-level mirror of the runtime node model:
// groups are named, references are symbolic, and enums are mnemonics.
// The compiler turns a GraphDef into an arena of runtime nodes; nothing
// on the runtime hot path reads ir types.
//
// Canonical marshaling (keys sorted in UTF-16 code unit order, NFC
// normalized strings, no HTML escaping, no floats, no null) gives every
// graph a stable content hash. The hash keys the analysis cache and the
// golden traces, so two graphs that differ only in authoring noise share
// one identity.
package ir
