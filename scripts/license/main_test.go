// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddPrefix_MatchesHeaderOfThisFile(t *testing.T) {
	content, err := os.ReadFile("main.go")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(content), addPrefix(licenseHeader, "//")))
}

func TestProcessTree_AddsMissingHeaders(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "pkg", "a.go")
	config := filepath.Join(dir, "ci.yml")
	other := filepath.Join(dir, "notes.txt")
	generated := filepath.Join(dir, "b_mocks.go")
	reference := filepath.Join(dir, "_vendored", "x.go")

	files := map[string]string{
		source:    "package pkg\n",
		config:    "name: ci\n",
		other:     "notes\n",
		generated: "// Code generated by MockGen. DO NOT EDIT.\npackage pkg\n",
		reference: "package x\n",
	}
	for path, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	require.Error(t, processTree(dir, true))
	require.NoError(t, processTree(dir, false))
	require.NoError(t, processTree(dir, true))

	got, err := os.ReadFile(source)
	require.NoError(t, err)
	require.Equal(t, addPrefix(licenseHeader, "//")+"\npackage pkg\n", string(got))

	got, err = os.ReadFile(config)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(got), "# Copyright"))

	for _, path := range []string{other, generated, reference} {
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, files[path], string(got))
	}

	// A second run leaves files untouched.
	require.NoError(t, processTree(dir, false))
	got, err = os.ReadFile(source)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(got), "Copyright"))
}
