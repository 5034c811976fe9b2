package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type testSortField string

func joinWithSeparator(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

func TestDefaultKeySerializer_BasicTypes(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name      string
		namespace string
		args      []any
		want      string
	}{
		{
			name:      "no args",
			namespace: "devices",
			args:      []any{},
			want:      "devices",
		},
		{
			name:      "single int",
			namespace: "device",
			args:      []any{42},
			want:      joinWithSeparator("device", "42"),
		},
		{
			name:      "multiple basic types",
			namespace: "devices",
			args:      []any{1, "light", true, int64(7)},
			want:      joinWithSeparator("devices", "1", "light", "true", "7"),
		},
		{
			name:      "named string type",
			namespace: "devices",
			args:      []any{testSortField("name")},
			want:      joinWithSeparator("devices", "name"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.namespace, tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_NilValues(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	var nilBool *bool
	var nilInt *int
	falseVal := false

	tests := []struct {
		name string
		args []any
		want string
	}{
		{
			name: "untyped nil",
			args: []any{nil},
			want: joinWithSeparator("devices", ""),
		},
		{
			name: "nil pointers",
			args: []any{nilBool, nilInt},
			want: joinWithSeparator("devices", "", ""),
		},
		{
			name: "false is not nil",
			args: []any{&falseVal},
			want: joinWithSeparator("devices", "false"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey("devices", tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_EscapesSegments(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name string
		arg  string
	}{
		{name: "separator", arg: "a:b"},
		{name: "glob star", arg: "lamp*"},
		{name: "glob class", arg: "[ab]"},
		{name: "question mark", arg: "what?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey("devices", tt.arg)
			segment := strings.TrimPrefix(got, "devices"+KeySeparator)
			if strings.ContainsAny(segment, ":*?[]") {
				t.Errorf("SerializeKey() = %v, segment %q still holds reserved characters", got, segment)
			}
		})
	}
}

func TestDefaultKeySerializer_NoCollisions(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	a := serializer.SerializeKey("devices", "a:b", "")
	b := serializer.SerializeKey("devices", "a", "b")
	if a == b {
		t.Errorf("SerializeKey() produced the same key %q for different parts", a)
	}

	space := serializer.SerializeKey("devices", "a b")
	plus := serializer.SerializeKey("devices", "a+b")
	if space == plus {
		t.Errorf("SerializeKey() produced the same key %q for space and plus", space)
	}
}

func TestDefaultKeySerializer_Stringers(t *testing.T) {
	serializer := NewDefaultKeySerializer()
	id := uuid.MustParse("3f2b8c1e-9d4a-4c7b-8e2f-1a2b3c4d5e6f")

	got := serializer.SerializeKey("device", id)
	want := "device:3f2b8c1e-9d4a-4c7b-8e2f-1a2b3c4d5e6f"
	if got != want {
		t.Errorf("SerializeKey() = %v, want %v", got, want)
	}

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	got = serializer.SerializeKey("ts", ts)
	want = "ts:2024-03-01T11%3A00%3A00Z"
	if got != want {
		t.Errorf("SerializeKey() = %v, want %v", got, want)
	}
	if n := strings.Count(got, KeySeparator); n != 1 {
		t.Errorf("SerializeKey() time segment added separators: %v", got)
	}
}

func TestDefaultKeySerializer_Stability(t *testing.T) {
	serializer := NewDefaultKeySerializer()
	online := true
	threshold := 50

	first := serializer.SerializeKey("devices", 1, 10, "light", "Kitchen", &online, "lamp", &threshold)
	for i := 0; i < 100; i++ {
		if got := serializer.SerializeKey("devices", 1, 10, "light", "Kitchen", &online, "lamp", &threshold); got != first {
			t.Fatalf("SerializeKey() unstable: %v != %v", got, first)
		}
	}
}
