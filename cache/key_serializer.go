package cache

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = ":"

// defaultKeySerializer implements KeySerializer for positional keys of the
// form namespace:part:part. String parts are query-escaped so they cannot
// introduce a separator or a glob metacharacter, which keeps pattern based
// invalidation exact.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey joins namespace and the serialized parts with KeySeparator.
func (s *defaultKeySerializer) SerializeKey(namespace string, parts ...any) string {
	if len(parts) == 0 {
		return namespace
	}

	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, namespace)
	for _, part := range parts {
		segments = append(segments, s.serializeValue(part))
	}

	return strings.Join(segments, KeySeparator)
}

// serializeValue renders one part. Nil values, including nil pointers,
// render as the empty segment.
func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return escapeSegment(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case time.Time:
		return escapeSegment(val.UTC().Format(time.RFC3339Nano))
	case fmt.Stringer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return ""
		}
		return escapeSegment(val.String())
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		return s.serializeValue(rv.Elem().Interface())
	}

	// Named string and integer types such as enums.
	switch rv.Kind() {
	case reflect.String:
		return escapeSegment(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	}

	return escapeSegment(fmt.Sprintf("%v", v))
}

// escapeSegment percent-encodes everything outside the unreserved set, so
// ':', '*', '?', '[' and ']' never appear raw inside a segment.
func escapeSegment(s string) string {
	return url.QueryEscape(s)
}
