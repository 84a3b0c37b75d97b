package protocol

import "errors"

// ErrNoPublisherLocation names the case where a filter requires a
// publisher-known largest location and none has been observed yet.
// ResolveSubscribeStart does not return it: it resolves that case to
// (0,0) with a nil error.
var ErrNoPublisherLocation = errors.New("protocol: no publisher largest location")

// ErrInvalidRange is returned when a caller-supplied range fails a
// structural invariant (end before start, missing joining request, …).
var ErrInvalidRange = errors.New("protocol: invalid range")

// Location addresses a single object within a track.
type Location struct {
	Group  uint64
	Object uint64
}

// Less reports whether l sorts strictly before other under the
// lexicographic (group, object) order spec.md §3 defines for Location.
func (l Location) Less(other Location) bool {
	if l.Group != other.Group {
		return l.Group < other.Group
	}
	return l.Object < other.Object
}

// Max returns the lexicographically larger of l and other.
func (l Location) Max(other Location) Location {
	if other.Less(l) {
		return l
	}
	return other
}

// ResolveSubscribeStart computes the start Location a SUBSCRIBE filter
// resolves to, given the publisher's largest known location (nil if
// unknown). AbsoluteStart and AbsoluteRange echo the caller-supplied
// start verbatim; LatestObject and NextGroupStart derive it from the
// publisher's state.
func ResolveSubscribeStart(filter FilterType, callerStart Location, publisherLargest *Location) (Location, error) {
	switch filter {
	case FilterLatestObject:
		if publisherLargest == nil {
			return Location{}, nil
		}
		return Location{Group: publisherLargest.Group, Object: publisherLargest.Object + 1}, nil
	case FilterNextGroupStart:
		if publisherLargest == nil {
			return Location{}, nil
		}
		return Location{Group: publisherLargest.Group + 1, Object: 0}, nil
	case FilterAbsoluteStart, FilterAbsoluteRange:
		return callerStart, nil
	default:
		return Location{}, ErrInvalidRange
	}
}

// ValidateSubscribeRange checks the AbsoluteRange invariant that
// end_group must exceed the start group.
func ValidateSubscribeRange(filter FilterType, start Location, endGroup uint64) error {
	if filter != FilterAbsoluteRange {
		return nil
	}
	if endGroup <= start.Group {
		return ErrInvalidRange
	}
	return nil
}

// JoiningSubscribeView is the subset of a SubscribeRequest's state
// needed to resolve a Relative or Absolute fetch range, kept here
// (rather than importing internal/registry) to avoid a dependency
// cycle between the message model and the registry it is parsed into.
type JoiningSubscribeView struct {
	LargestLocation Location
}

// ResolveFetchRange computes the (start, end) range a FETCH resolves
// to from its FetchTypeAndProps. Relative and Absolute variants require
// the joining subscription's view; StandAlone ignores it.
func ResolveFetchRange(t FetchTypeAndProps, joining *JoiningSubscribeView) (start, end Location, err error) {
	switch t.Kind {
	case FetchStandAlone:
		start = Location{Group: t.StartGroup, Object: t.StartObj}
		end = Location{Group: t.EndGroup, Object: t.EndObj}
		if end.Less(start) {
			return Location{}, Location{}, ErrInvalidRange
		}
		return start, end, nil
	case FetchRelative:
		if joining == nil {
			return Location{}, Location{}, ErrInvalidRange
		}
		if t.JoiningStart > joining.LargestLocation.Group {
			return Location{}, Location{}, ErrInvalidRange
		}
		start = Location{Group: joining.LargestLocation.Group - t.JoiningStart, Object: 0}
		return start, joining.LargestLocation, nil
	case FetchAbsolute:
		if joining == nil {
			return Location{}, Location{}, ErrInvalidRange
		}
		start = Location{Group: t.JoiningStart, Object: 0}
		return start, joining.LargestLocation, nil
	default:
		return Location{}, Location{}, ErrInvalidRange
	}
}
