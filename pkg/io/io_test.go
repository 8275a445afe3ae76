package io

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountingWriter(t *testing.T) {
	assert := assert.New(t)

	var sb strings.Builder
	counter := CountingWriter{Delegate: &sb}

	n, err := counter.Write([]byte{'a', 'b'})
	assert.NoError(err)
	assert.Equal(2, n)
	assert.EqualValues(2, counter.BytesWritten)

	_, err = counter.Write([]byte{'c'})
	assert.NoError(err)
	assert.EqualValues(3, counter.BytesWritten)
	assert.Equal("abc", sb.String())
}

func TestRawFile_Clone(t *testing.T) {
	f := &RawFile{FPath: "a.json", Content: []byte("{}")}
	c := f.Clone().(*RawFile)
	c.Content[0] = '['
	assert.Equal(t, "{}", string(f.Content))
	assert.Equal(t, "a.json", c.Path())
}

func TestOutputTo(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), []byte("a much longer previous content"), 0666))

	files := []File{
		&RawFile{FPath: "old.json", Content: []byte("{}")},
		&RawFile{FPath: "nested/stack.yaml", Content: []byte("Resources: {}\n")},
	}
	require.NoError(t, OutputTo(files, dir))

	content, err := os.ReadFile(filepath.Join(dir, "old.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(content))

	read, err := ReadDir(dir, []string{"nested/stack.yaml", "missing.json"})
	require.NoError(t, err)
	require.Len(t, read, 1)
	assert.Equal(t, "Resources: {}\n", string(read[0].(*RawFile).Content))
}
