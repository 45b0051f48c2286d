package log

import (
	"log/slog"
)

// A Field is a marshaling operation used to add a key-value pair to a
// logger's context.
type Field = slog.Attr

// String constructs a Field with the given key and value.
func String(key, val string) Field {
	return slog.String(key, val)
}

// Int constructs a Field with the given key and value.
func Int[T ~int | ~int8 | ~int16 | ~int32 | ~int64](key string, val T) Field {
	return slog.Int64(key, int64(val))
}

// Uint constructs a Field with the given key and value.
func Uint[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](key string, val T) Field {
	return slog.Uint64(key, uint64(val))
}

// Hex constructs a Field rendering the value in hexadecimal.
func Hex[T ~int32 | ~uint32](key string, val T) Field {
	return slog.String(key, hexString(uint32(val)))
}

// Err constructs a Field from the given error.
func Err(err error) Field {
	return slog.Any("error", err)
}

const hexDigits = "0123456789abcdef"

func hexString(v uint32) string {
	buf := [10]byte{'0', 'x'}
	for i := 0; i < 8; i++ {
		buf[2+i] = hexDigits[v>>(28-4*i)&0xf]
	}
	return string(buf[:])
}
