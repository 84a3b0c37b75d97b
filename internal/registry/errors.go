package registry

import "errors"

// ErrTrackAlias is returned by AliasMap.Add when the alias or name is
// already mapped to a different peer.
var ErrTrackAlias = errors.New("registry: conflicting track alias mapping")

// ErrUnknownRequest is returned when a request id has no matching
// in-flight request.
var ErrUnknownRequest = errors.New("registry: unknown request id")

// ErrRequestKindMismatch is returned when a request is looked up as
// the wrong concrete type (e.g. completing a FetchRequest's channel
// through the SubscribeRequest accessor).
var ErrRequestKindMismatch = errors.New("registry: request kind mismatch")
