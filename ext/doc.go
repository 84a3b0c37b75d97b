// Package ext provides typed helpers over wire.KeyValuePair for the
// handful of object-extension types media applications commonly attach
// to MoqtObject: capture timestamp, video frame marking, video config,
// and audio level. The core protocol and publication engines never
// interpret extensions themselves — they carry wire.KeyValuePair slices
// verbatim — so this package exists purely for callers that want to
// read or construct those well-known types without hand-rolling the
// varint/bytes dispatch.
package ext
