package procmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckCurrentDirLength(t *testing.T) {
	assert.NoError(t, checkCurrentDirLength(2))
	assert.NoError(t, checkCurrentDirLength(maxCurrentDirBytes))
	assert.Error(t, checkCurrentDirLength(0))
	assert.Error(t, checkCurrentDirLength(maxCurrentDirBytes+2))
	assert.Error(t, checkCurrentDirLength(7))
}

func TestTrimTrailingSeparator(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`C:\proj\`, `C:\proj`},
		{`C:\proj`, `C:\proj`},
		{`C:\proj\\`, `C:\proj\`},
		{`C:\`, `C:\`},
		{`\\server\share\`, `\\server\share`},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, trimTrailingSeparator(tt.in), tt.in)
	}
}
