package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBinary(t *testing.T) {
	t.Parallel()

	assert.False(t, IsBinary(nil))
	assert.False(t, IsBinary([]byte("import os\n")))
	assert.True(t, IsBinary([]byte("PK\x03\x04\x00")))
}

func TestIsBinary_OnlySniffWindowChecked(t *testing.T) {
	t.Parallel()

	data := []byte(strings.Repeat("a", BinarySniffLength) + "\x00")
	assert.False(t, IsBinary(data))

	data[BinarySniffLength-1] = 0
	assert.True(t, IsBinary(data))
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{in: "", want: 0},
		{in: "\n", want: 1},
		{in: "a", want: 1},
		{in: "a\nb\n", want: 2},
		{in: "a\nb", want: 2},
		{in: "\n\n\n", want: 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CountLines([]byte(tt.in)), "input %q", tt.in)
	}
}

func TestLines(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Lines(""))
	assert.Equal(t, []string{"a", "b", ""}, Lines("a\r\nb\n"))
	assert.Equal(t, []string{"pip", "", "conda"}, Lines("pip\n\nconda"))
}

func TestHasShebang(t *testing.T) {
	t.Parallel()

	assert.True(t, HasShebang([]byte("#!/usr/bin/env python3\n")))
	assert.False(t, HasShebang([]byte("# comment\n")))
	assert.False(t, HasShebang(nil))
}
