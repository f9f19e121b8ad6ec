package workspace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"with-dash_and.dot,comma", "with-dash_and.dot,comma"},
		{"a b", "a%20b"},
		{"a/b", "a%2Fb"},
		{"100%", "100%25"},
		// The first character must not open the private or hidden
		// namespace, so it is escaped too.
		{"_incoming", "%5Fincoming"},
		{".hidden", "%2Ehidden"},
		{"../x", "%2E.%2Fx"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeName(tt.in), "input %q", tt.in)
	}
}

func TestSafeNameLengthCap(t *testing.T) {
	long := strings.Repeat("x", 2*nameMax)
	assert.LessOrEqual(t, len(SafeName(long)), nameMax)

	// Escapes never get truncated mid-sequence.
	longSpaces := strings.Repeat(" ", nameMax)
	out := SafeName(longSpaces)
	assert.LessOrEqual(t, len(out), nameMax)
	assert.Equal(t, 0, len(out)%3)
}
