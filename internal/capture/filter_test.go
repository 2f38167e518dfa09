package capture

import (
	"testing"

	"github.com/mrzor/compiler-monitor/internal/procmeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilter_Empty(t *testing.T) {
	f, err := NewFilter("")
	require.NoError(t, err)
	assert.Nil(t, f)

	allowed, err := f.Allow(&procmeta.ProcessMetadata{}, "", nil, nil)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, "", f.String())
}

func TestNewFilter_Invalid(t *testing.T) {
	tests := []string{
		`name ==`,
		`name`,
		`unknown_var == 1`,
	}

	for _, src := range tests {
		_, err := NewFilter(src)
		assert.ErrorIs(t, err, ErrInvalidFilter, src)
	}
}

func TestFilter_Allow(t *testing.T) {
	meta := &procmeta.ProcessMetadata{PID: 7, Name: "cl.exe", WorkingDir: `C:\proj\vendor`}
	command := "cl.exe /c /DNDEBUG a.cpp"
	files := []string{`C:\proj\vendor\a.cpp`}
	args := []string{"cl.exe", "/c", "/DNDEBUG", "a.cpp"}

	tests := []struct {
		expr string
		want bool
	}{
		{`name == "cl.exe"`, true},
		{`pid > 10`, false},
		{`command contains "/DNDEBUG"`, true},
		{`!(directory contains "vendor")`, false},
		{`len(files) == 1`, true},
		{`"/c" in args`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := NewFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, f.String())

			got, err := f.Allow(meta, command, files, args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
