// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Adds or checks license headers of the source files in this repository.
//
// Run using
//  go run ./scripts/license --dir . [--check]

package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

const licenseHeader = `Copyright (c) 2025 Sonic Operations Ltd

Use of this software is governed by the Business Source License included
in the LICENSE file and at soniclabs.com/bsl11.

Change Date: 2028-4-16

On the date above, in accordance with the Business Source License, use of
this software will be governed by the GNU Lesser General Public License v3.
`

// commentPrefixes maps file extensions (leading dot) or file names to the
// line comment prefix used for the header.
var commentPrefixes = map[string]string{
	".go":    "//",
	".yml":   "#",
	"go.mod": "//",
}

// ignored lists path fragments excluded from processing. Like the go tool,
// directories starting with an underscore are skipped.
var ignored = []string{"/_", "/build/", "/.git/"}

var (
	dirFlag = cli.StringFlag{
		Name:     "dir",
		Usage:    "directory to process recursively",
		Required: true,
	}
	checkFlag = cli.BoolFlag{
		Name:  "check",
		Usage: "only verify headers, do not modify files",
	}
)

func main() {
	app := &cli.App{
		Name:   "license",
		Usage:  "adds or checks license headers",
		Flags:  []cli.Flag{&dirFlag, &checkFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(context *cli.Context) error {
	dir := context.String(dirFlag.Name)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("invalid target directory %q", dir)
	}
	return processTree(dir, context.Bool(checkFlag.Name))
}

// processTree adds missing headers to all matching files below dir. In check
// mode, it reports every file lacking the header instead.
func processTree(dir string, checkOnly bool) error {
	var issues []error
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || shouldIgnore(path) {
			return nil
		}
		prefix, found := prefixOf(path)
		if !found {
			return nil
		}
		changed, err := processFile(path, addPrefix(licenseHeader, prefix), checkOnly)
		if err != nil {
			issues = append(issues, err)
		} else if changed {
			log.Info("Added license header", "file", path)
		}
		return nil
	})
	return errors.Join(err, errors.Join(issues...))
}

// processFile makes sure the file starts with the given header and reports
// whether it had to be added.
func processFile(path, header string, checkOnly bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if bytes.HasPrefix(content, []byte(header)) {
		return false, nil
	}
	if bytes.HasPrefix(content, []byte("// Code generated")) {
		return false, nil
	}
	if checkOnly {
		return false, fmt.Errorf("missing or incorrect license header: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	updated := append([]byte(header+"\n"), content...)
	return true, os.WriteFile(path, updated, info.Mode().Perm())
}

func shouldIgnore(path string) bool {
	slashed := "/" + filepath.ToSlash(path)
	for _, fragment := range ignored {
		if strings.Contains(slashed, fragment) {
			return true
		}
	}
	return false
}

func prefixOf(path string) (string, bool) {
	if prefix, found := commentPrefixes[filepath.Base(path)]; found {
		return prefix, true
	}
	prefix, found := commentPrefixes[filepath.Ext(path)]
	return prefix, found
}

func addPrefix(license, prefix string) string {
	var buf bytes.Buffer
	s := bufio.NewScanner(strings.NewReader(license))
	for s.Scan() {
		if line := s.Text(); line == "" {
			buf.WriteString(prefix + "\n")
		} else {
			buf.WriteString(prefix + " " + line + "\n")
		}
	}
	return buf.String()
}
