// Package datetime converts between the timestamp encodings found in device
// logs and time.Time.
//
// Two integer encodings are supported: milliseconds since the Unix epoch and
// 100-nanosecond ticks counted from 0001-01-01T00:00:00Z. All arithmetic is
// done in the tick domain so leap seconds never enter the computation.
package datetime

import (
	"math"
	"math/bits"
	"time"
)

const (
	// TicksPerSecond is the number of 100ns ticks in one second.
	TicksPerSecond = 10_000_000

	// EpochOffsetTicks is the Unix epoch expressed in 100ns ticks since 0001-01-01.
	EpochOffsetTicks uint64 = 621_355_968_000_000_000

	// EpochOffsetSeconds is the Unix epoch expressed in seconds since 0001-01-01.
	EpochOffsetSeconds int64 = 62_135_596_800
)

// DevicesEpoch is the point before which a device timestamp is considered
// relative to device power-on rather than absolute.
var DevicesEpoch = time.Unix(978_300_000, 0).UTC()

// From100ns converts ticks since 0001-01-01 into a UTC time. It fails for
// values before the Unix epoch.
func From100ns(ticks uint64) (time.Time, bool) {
	if ticks < EpochOffsetTicks {
		return time.Time{}, false
	}
	t := ticks - EpochOffsetTicks
	sec := t / TicksPerSecond
	if sec > math.MaxInt64 {
		return time.Time{}, false
	}
	nsec := (t % TicksPerSecond) * 100
	return time.Unix(int64(sec), int64(nsec)).UTC(), true
}

// To100ns converts a time into ticks since 0001-01-01. It fails for times
// before that origin or when the result does not fit into 64 bits.
// Sub-tick precision is truncated.
func To100ns(t time.Time) (uint64, bool) {
	sec := t.Unix()
	if sec < -EpochOffsetSeconds {
		return 0, false
	}
	total := uint64(sec + EpochOffsetSeconds)
	hi, ticks := bits.Mul64(total, TicksPerSecond)
	if hi != 0 {
		return 0, false
	}
	ticks, carry := bits.Add64(ticks, uint64(t.Nanosecond())/100, 0)
	if carry != 0 {
		return 0, false
	}
	return ticks, true
}

// FromTimestampMs converts milliseconds since the Unix epoch into a UTC time.
func FromTimestampMs(ms uint64) (time.Time, bool) {
	sec := ms / 1000
	if sec > math.MaxInt64 {
		return time.Time{}, false
	}
	nsec := (ms % 1000) * uint64(time.Millisecond)
	return time.Unix(int64(sec), int64(nsec)).UTC(), true
}

// AddOffset100ns shifts t by delta ticks. It reports false when t is not
// representable as ticks or the shifted value leaves the tick range.
func AddOffset100ns(t time.Time, delta int64) (time.Time, bool) {
	ticks, ok := To100ns(t)
	if !ok {
		return time.Time{}, false
	}
	switch {
	case delta == math.MinInt64:
		// -MinInt64 is not representable; subtract in two steps.
		mag := uint64(math.MaxInt64) + 1
		if ticks < mag {
			return time.Time{}, false
		}
		ticks -= mag
	case delta < 0:
		mag := uint64(-delta)
		if ticks < mag {
			return time.Time{}, false
		}
		ticks -= mag
	default:
		var carry uint64
		ticks, carry = bits.Add64(ticks, uint64(delta), 0)
		if carry != 0 {
			return time.Time{}, false
		}
	}
	return From100ns(ticks)
}
