package ext

import (
	"testing"

	"github.com/streaming-university/moqtail-sub001/internal/wire"
)

func TestCaptureTimestampRoundTrip(t *testing.T) {
	t.Parallel()
	kv, err := CaptureTimestamp(1_700_000_000_000_000).Encode()
	if err != nil {
		t.Fatalf("Encode: unexpected error: %v", err)
	}
	got, err := DecodeCaptureTimestamp(kv)
	if err != nil {
		t.Fatalf("Decode: unexpected error: %v", err)
	}
	if got != 1_700_000_000_000_000 {
		t.Fatalf("CaptureTimestamp round trip: got %d", got)
	}
}

func TestVideoConfigRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := VideoConfig{0x01, 0x42, 0x00, 0x1e}
	kv, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: unexpected error: %v", err)
	}
	got, err := DecodeVideoConfig(kv)
	if err != nil {
		t.Fatalf("Decode: unexpected error: %v", err)
	}
	if string(got) != string(cfg) {
		t.Fatalf("VideoConfig round trip: got %v, want %v", got, cfg)
	}
}

func TestDecodeRejectsMismatchedType(t *testing.T) {
	t.Parallel()
	kv, _ := AudioLevel(42).Encode()
	if _, err := DecodeCaptureTimestamp(kv); err == nil {
		t.Fatalf("DecodeCaptureTimestamp on an audio-level pair: expected error, got none")
	}
}

func TestCatalogDescribe(t *testing.T) {
	t.Parallel()
	kv, _ := VideoFrameMarking(7).Encode()
	val, ok := Describe(kv)
	if !ok {
		t.Fatalf("Describe: expected ok=true for a known extension type")
	}
	if marking, isMarking := val.(VideoFrameMarking); !isMarking || marking != 7 {
		t.Fatalf("Describe: got %#v, want VideoFrameMarking(7)", val)
	}

	unregistered, _ := wire.NewVarintKV(98, 1)
	if _, ok := Describe(unregistered); ok {
		t.Fatalf("Describe: expected ok=false for an unregistered extension type")
	}
}
