package model

import (
	"math"
	"strconv"
)

// Well-known custom field names.
const (
	FieldErrorCode   = "ErrorCode"
	FieldSessionID   = "SessionId"
	FieldSubSourceID = "SubSourceId"

	FieldException             = "Exception"
	FieldApplication           = "Application"
	FieldProcessID             = "ProcessId"
	FieldChannel               = "Channel"
	FieldSession               = "Session"
	FieldErrorNumber           = "ErrorNumber"
	FieldPrivateInnerException = "PrivateInnerException"

	FieldAddress   = "Address"
	FieldComponent = "Component"
)

// FieldKind identifies the scalar type stored in a CustomField.
type FieldKind uint8

const (
	KindInt8 FieldKind = iota
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindString
)

// CustomField is a typed scalar attached to a log entry by name.
// Integers are stored widened; the kind records the declared width.
type CustomField struct {
	kind FieldKind
	i    int64
	u    uint64
	f    float64
	s    string
}

func Int8Field(v int8) CustomField { return CustomField{kind: KindInt8, i: int64(v)} }
func Int16Field(v int16) CustomField { return CustomField{kind: KindInt16, i: int64(v)} }
func Int32Field(v int32) CustomField { return CustomField{kind: KindInt32, i: int64(v)} }
func Int64Field(v int64) CustomField { return CustomField{kind: KindInt64, i: v} }
func UInt8Field(v uint8) CustomField { return CustomField{kind: KindUInt8, u: uint64(v)} }
func UInt16Field(v uint16) CustomField { return CustomField{kind: KindUInt16, u: uint64(v)} }
func UInt32Field(v uint32) CustomField { return CustomField{kind: KindUInt32, u: uint64(v)} }
func UInt64Field(v uint64) CustomField { return CustomField{kind: KindUInt64, u: v} }
func Float32Field(v float32) CustomField { return CustomField{kind: KindFloat32, f: float64(v)} }
func Float64Field(v float64) CustomField { return CustomField{kind: KindFloat64, f: v} }
func StringField(v string) CustomField { return CustomField{kind: KindString, s: v} }

// Kind returns the declared type of the field.
func (c CustomField) Kind() FieldKind { return c.kind }

// UInt32 returns the value if the field is an unsigned integer that fits
// into 32 bits.
func (c CustomField) UInt32() (uint32, bool) {
	switch c.kind {
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		if c.u > math.MaxUint32 {
			return 0, false
		}
		return uint32(c.u), true
	}
	return 0, false
}

// Int64 returns the value of any signed integer field, or an unsigned field
// that fits.
func (c CustomField) Int64() (int64, bool) {
	switch c.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return c.i, true
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		if c.u > math.MaxInt64 {
			return 0, false
		}
		return int64(c.u), true
	}
	return 0, false
}

// Float64 returns the value of a float field.
func (c CustomField) Float64() (float64, bool) {
	if c.kind == KindFloat32 || c.kind == KindFloat64 {
		return c.f, true
	}
	return 0, false
}

// Str returns the value of a string field.
func (c CustomField) Str() (string, bool) {
	return c.s, c.kind == KindString
}

// String formats the value regardless of kind.
func (c CustomField) String() string {
	switch c.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return strconv.FormatInt(c.i, 10)
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return strconv.FormatUint(c.u, 10)
	case KindFloat32:
		return strconv.FormatFloat(c.f, 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(c.f, 'g', -1, 64)
	default:
		return c.s
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c CustomField) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
