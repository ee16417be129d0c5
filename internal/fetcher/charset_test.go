package fetcher

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharsetReader_Windows1252(t *testing.T) {
	// 0xE9 is "é" in windows-1252.
	r, err := CharsetReader("windows-1252", strings.NewReader("H\xe9tel"))
	require.NoError(t, err)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Hétel", string(data))
}

func TestCharsetReader_Unsupported(t *testing.T) {
	_, err := CharsetReader("klingon-8", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")
}
