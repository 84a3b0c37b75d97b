package protocol

// Control message type IDs (draft-15 numbering, extended to the full
// control-message union this library implements).
const (
	MsgSubscribeUpdate        uint64 = 0x02
	MsgSubscribe              uint64 = 0x03
	MsgSubscribeOk            uint64 = 0x04
	MsgSubscribeError         uint64 = 0x05
	MsgAnnounce               uint64 = 0x06 // wire alias of PublishNamespace
	MsgAnnounceOk             uint64 = 0x07
	MsgAnnounceError          uint64 = 0x08
	MsgUnannounce             uint64 = 0x09 // wire alias of PublishNamespaceDone
	MsgUnsubscribe            uint64 = 0x0a
	MsgSubscribeDone          uint64 = 0x0b
	MsgAnnounceCancel         uint64 = 0x0c // wire alias of PublishNamespaceCancel
	MsgTrackStatusRequest     uint64 = 0x0d
	MsgTrackStatus            uint64 = 0x0e
	MsgGoAway                 uint64 = 0x10
	MsgSubscribeAnnounces     uint64 = 0x11
	MsgSubscribeAnnouncesOk   uint64 = 0x12
	MsgSubscribeAnnouncesErr  uint64 = 0x13
	MsgUnsubscribeAnnounces   uint64 = 0x14
	MsgMaxRequestID           uint64 = 0x15
	MsgFetch                  uint64 = 0x16
	MsgFetchCancel            uint64 = 0x17
	MsgFetchOk                uint64 = 0x18
	MsgFetchError             uint64 = 0x19
	MsgRequestsBlocked        uint64 = 0x1a
	MsgClientSetup            uint64 = 0x20
	MsgServerSetup            uint64 = 0x21
	MsgTrackStatusRequestResp uint64 = 0x22
)

// Version is the MoQT protocol version this library speaks.
const Version uint64 = 0xff00000f

// Setup parameter keys (draft-15 §6.2), generalized beyond the
// teacher's Path/MaxRequestID pair to the full set spec.md §4.4 names.
const (
	ParamPath                uint64 = 0x01
	ParamMaxRequestID        uint64 = 0x02
	ParamMaxAuthTokenCacheSz uint64 = 0x04
)

// FilterType selects how a SUBSCRIBE's start location is resolved.
type FilterType uint64

const (
	FilterNextGroupStart FilterType = 0x01
	FilterLatestObject   FilterType = 0x02
	FilterAbsoluteStart  FilterType = 0x03
	FilterAbsoluteRange  FilterType = 0x04
)

// GroupOrder selects the order in which a publisher delivers groups.
type GroupOrder uint8

const (
	GroupOrderDefault    GroupOrder = 0x00
	GroupOrderAscending  GroupOrder = 0x01
	GroupOrderDescending GroupOrder = 0x02
)

// ForwardingPreference selects how a track's objects are carried.
type ForwardingPreference uint8

const (
	ForwardingSubgroup ForwardingPreference = iota
	ForwardingDatagram
)

// ObjectStatus distinguishes a present payload from an out-of-band
// status signal carried in place of one.
type ObjectStatus uint64

const (
	ObjectStatusNormal      ObjectStatus = 0x00
	ObjectStatusDoesNotExist ObjectStatus = 0x01
	ObjectStatusEndOfGroup  ObjectStatus = 0x03
	ObjectStatusEndOfTrack  ObjectStatus = 0x04
)

// SubscribeDoneCode enumerates why a subscription ended.
type SubscribeDoneCode uint64

const (
	SubscribeDoneUnsubscribed    SubscribeDoneCode = 0x00
	SubscribeDoneInternalError   SubscribeDoneCode = 0x01
	SubscribeDoneUnauthorized    SubscribeDoneCode = 0x02
	SubscribeDoneTrackEnded      SubscribeDoneCode = 0x03
	SubscribeDoneSubscriptionEnded SubscribeDoneCode = 0x04
	SubscribeDoneGoingAway       SubscribeDoneCode = 0x05
	SubscribeDoneExpired         SubscribeDoneCode = 0x06
)

// RequestErrorCode enumerates the error codes carried on SUBSCRIBE_ERROR /
// FETCH_ERROR / PUBLISH_NAMESPACE_ERROR / SUBSCRIBE_ANNOUNCES_ERROR /
// TRACK_STATUS_ERROR.
type RequestErrorCode uint64

const (
	ErrCodeInternalError     RequestErrorCode = 0x00
	ErrCodeUnauthorized      RequestErrorCode = 0x01
	ErrCodeTimeout           RequestErrorCode = 0x02
	ErrCodeNotSupported      RequestErrorCode = 0x03
	ErrCodeTrackDoesNotExist RequestErrorCode = 0x04
	ErrCodeInvalidRange      RequestErrorCode = 0x05
	ErrCodeRetryTrackAlias   RequestErrorCode = 0x06
	ErrCodeMalformedAuthToken RequestErrorCode = 0x10
	ErrCodeExpiredAuthToken   RequestErrorCode = 0x11
)
