package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackups_ListsNewestFirst(t *testing.T) {
	home := isolate(t)
	older := filepath.Join(home, ".gary.bak.20250101-101010")
	newer := filepath.Join(home, ".gary.bak.20260202-202020")
	require.NoError(t, os.MkdirAll(older, 0o755))
	require.NoError(t, os.MkdirAll(newer, 0o755))

	var out bytes.Buffer
	code := 0
	runMain([]string{"gary-install", "backups"}, &out, &out, func(c int) { code = c })
	require.Equal(t, 0, code, out.String())

	text := out.String()
	assert.Less(t, strings.Index(text, newer), strings.Index(text, older))
	assert.Contains(t, text, "2026-02-02 20:20:20")
	assert.Contains(t, text, "mv "+newer)
}

func TestBackups_None(t *testing.T) {
	home := isolate(t)
	var out bytes.Buffer
	code := 0
	runMain([]string{"gary-install", "backups"}, &out, &out, func(c int) { code = c })
	require.Equal(t, 0, code)
	assert.Contains(t, out.String(), filepath.Join(home, ".gary"))
}
