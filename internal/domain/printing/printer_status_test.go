package printing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		platform Platform
		code     int
		want     StatusClass
	}{
		{PlatformWindows, 0, StatusClassSuccess},
		{PlatformWindows, 3, StatusClassNotConnected},
		{PlatformWindows, 8, StatusClassError},
		{PlatformWindows, 128, StatusClassError},
		{PlatformWindows, 1, StatusClassUnknown},
		{PlatformMacOS, 0, StatusClassSuccess},
		{PlatformMacOS, 3, StatusClassNotConnected},
		{PlatformMacOS, 5, StatusClassError},
		{PlatformLinux, 3, StatusClassIdle},
		{PlatformLinux, 4, StatusClassSuccess},
		{PlatformLinux, 5, StatusClassError},
		{PlatformLinux, 0, StatusClassUnknown},
		{PlatformFreeBSD, 3, StatusClassUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyStatus(tt.platform, tt.code), "%s/%d", tt.platform, tt.code)
	}
}

func TestDescribeStatus(t *testing.T) {
	assert.Equal(t, "Ready/Idle", DescribeStatus(PlatformWindows, 0))
	assert.Equal(t, "Paper Jam", DescribeStatus(PlatformWindows, 8))
	assert.Equal(t, "Out of Paper", DescribeStatus(PlatformMacOS, 4))
	assert.Equal(t, "Printing", DescribeStatus(PlatformLinux, 4))
	assert.Equal(t, "Unknown Status", DescribeStatus(PlatformLinux, 42))
	assert.Equal(t, "Printer status detection not supported for this OS.", DescribeStatus(PlatformAIX, 0))
}
