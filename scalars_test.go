package otcodec

import (
	"testing"
	"time"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestFixedConversion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	f := FixedFromFloat(1.5)
	if f != 0x18000 {
		t.Errorf("expected 1.5 to encode as 0x18000, is %#x", int32(f))
	}
	if f.Float() != 1.5 {
		t.Errorf("expected 0x18000 to decode to 1.5, is %f", f.Float())
	}
	neg := FixedFromFloat(-0.5)
	if neg.Float() != -0.5 {
		t.Errorf("expected -0.5 to round-trip, is %f", neg.Float())
	}
}

func TestLongDateTime(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	if LongDateTime(0).Time().Year() != 1904 {
		t.Errorf("expected epoch to be in 1904, is %v", LongDateTime(0).Time())
	}
	now := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	if MakeLongDateTime(now).Time() != now {
		t.Errorf("expected date to round-trip, is %v", MakeLongDateTime(now).Time())
	}
}

func TestVersion16Dot16(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	v := MakeVersion16Dot16(0, 5)
	if uint32(v) != 0x00005000 {
		t.Errorf("expected version 0.5 to pack as 0x00005000, is %#x", uint32(v))
	}
	if v.Major() != 0 || v.Minor() != 5 {
		t.Errorf("expected version 0.5 to unpack, is %d.%d", v.Major(), v.Minor())
	}
	if v.String() != "0.5" {
		t.Errorf("expected version string '0.5', is %q", v.String())
	}
}

func TestMajorMinor(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	v := MakeMajorMinor(1, 3)
	if uint32(v) != 0x00010003 {
		t.Errorf("expected version 1.3 to pack as 0x00010003, is %#x", uint32(v))
	}
	if v.String() != "1.3" {
		t.Errorf("expected version string '1.3', is %q", v.String())
	}
}

func TestUint24Range(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	if _, err := MakeUint24(MaxUint24); err != nil {
		t.Errorf("expected max uint24 to be accepted, got %v", err)
	}
	if _, err := MakeUint24(MaxUint24 + 1); err == nil {
		t.Errorf("expected 2^24 to be rejected")
	}
}
