package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Matches(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"cl.exe", "cl.exe", true},
		{"cl.exe", "CL.EXE", true},
		{"cl.exe", "Cl.Exe", true},
		{"cl.exe", "clang.exe", false},
		{"cl.exe", "xcl.exe", false},
		{"cl.exe", "cl.exe.bak", false},
		{"cl.exe", "clxexe", false},
		{"cl*.exe", "cl1.exe", true},
		{"cl*.exe", "cl.exe", true},
		{"cl*.exe", "clang-cl.exe", true},
		{"cl*.exe", "gcc.exe", false},
		{"*cl.exe", "clang-cl.exe", true},
		{"cl?.exe", "cl1.exe", true},
		{"cl?.exe", "cl.exe", false},
		{"cl?.exe", "cl12.exe", false},
		{"*", "anything.exe", true},
		{"g++.exe", "G++.EXE", true},
		{"[cl].exe", "[cl].exe", true},
		{"[cl].exe", "c.exe", false},
		{"{a,b}.exe", "a.exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.name, func(t *testing.T) {
			m, err := Compile(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Matches(tt.name))
		})
	}
}

func TestCompile_Empty(t *testing.T) {
	_, err := Compile("  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestMatcher_String(t *testing.T) {
	m, err := Compile("CL*.exe")
	require.NoError(t, err)
	assert.Equal(t, "CL*.exe", m.String())
}
