package core

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	ulidPattern := regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

	tests := []struct {
		name   string
		prefix string
	}{
		{
			name:   "valid prefix",
			prefix: "u",
		},
		{
			name:   "valid multi-character prefix",
			prefix: "si",
		},
		{
			name:   "uppercase prefix gets lowercased",
			prefix: "USER",
		},
		{
			name:   "prefix with spaces gets trimmed",
			prefix: "  job  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewID(tt.prefix)

			expectedPrefix := strings.ToLower(strings.TrimSpace(tt.prefix)) + "_"
			assert.True(t, strings.HasPrefix(got, expectedPrefix),
				"NewID() = %v, want prefix %v", got, expectedPrefix)

			ulidPart := strings.TrimPrefix(got, expectedPrefix)
			require.Len(t, ulidPart, 26)
			assert.Regexp(t, ulidPattern, ulidPart)
		})
	}
}

func TestNewIDPanic(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{
			name:   "empty prefix panics",
			prefix: "",
		},
		{
			name:   "whitespace-only prefix panics",
			prefix: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { NewID(tt.prefix) })
		})
	}
}

func TestNewIDUniqueness(t *testing.T) {
	numTests := 1000
	ids := make(map[string]bool)

	for i := 0; i < numTests; i++ {
		id := NewID("test")
		assert.False(t, ids[id], "NewID() generated duplicate ID: %v", id)
		ids[id] = true
	}

	assert.Len(t, ids, numTests)
}

func TestIsValidULID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{
			name: "valid ULID with single char prefix",
			id:   NewID("t"),
			want: true,
		},
		{
			name: "valid ULID with multi char prefix",
			id:   NewID("user"),
			want: true,
		},
		{
			name: "valid ULID with numeric prefix",
			id:   NewID("v1"),
			want: true,
		},
		{
			name: "empty string",
			id:   "",
			want: false,
		},
		{
			name: "no underscore separator",
			id:   "test01G0EZ1XTM37C5X11SQTDNCTM1",
			want: false,
		},
		{
			name: "multiple underscores",
			id:   "test_01G0_EZ1XTM37C5X11SQTDNCTM1",
			want: false,
		},
		{
			name: "empty prefix",
			id:   "_01G0EZ1XTM37C5X11SQTDNCTM1",
			want: false,
		},
		{
			name: "uppercase prefix",
			id:   "USER_01G0EZ1XTM37C5X11SQTDNCTM1",
			want: false,
		},
		{
			name: "prefix with special chars",
			id:   "test-user_01G0EZ1XTM37C5X11SQTDNCTM1",
			want: false,
		},
		{
			name: "ULID part too short",
			id:   "test_01G0EZ1XTM37C5X11SQTDNCT",
			want: false,
		},
		{
			name: "ULID part too long",
			id:   "test_01G0EZ1XTM37C5X11SQTDNCTM12",
			want: false,
		},
		{
			name: "excluded base32 letter in ULID part",
			id:   "test_01G0EZ1XTM37C5X11SQTDNCTL1",
			want: false,
		},
		{
			name: "lowercase ULID part",
			id:   "test_01g0ez1xtm37c5x11sqtdnctm1",
			want: false,
		},
		{
			name: "empty ULID part",
			id:   "test_",
			want: false,
		},
		{
			name: "just prefix",
			id:   "test",
			want: false,
		},
		{
			name: "just underscore",
			id:   "_",
			want: false,
		},
		{
			name: "random string",
			id:   "not-a-ulid-at-all",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidULID(tt.id), "IsValidULID(%q)", tt.id)
		})
	}
}

func TestIsValidULIDWithGeneratedIDs(t *testing.T) {
	prefixes := []string{"u", "si", "j", "a", "msg", "sess", "client", "test123", "v2"}

	for _, prefix := range prefixes {
		t.Run("prefix_"+prefix, func(t *testing.T) {
			id := NewID(prefix)
			assert.True(t, IsValidULID(id), "generated ID %q should be valid", id)
		})
	}
}
