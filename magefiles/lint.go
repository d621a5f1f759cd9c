// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binLint     = "golangci-lint"
	binGofmt    = "gofmt"
	lintTimeout = "5m"
)

// Source roots checked by Fmt. The reference pack under _examples is not
// part of the module and is skipped.
var sourceDirs = []string{"cmd", "internal", "pkg", "magefiles"}

// Lint checks formatting, runs go vet, then golangci-lint.
func Lint() error {
	mg.SerialDeps(Fmt, Vet)
	return sh.RunV(binLint, "run", "--timeout", lintTimeout, "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV(binGo, "vet", "./...")
}

// Fmt fails if any source file needs gofmt -s.
func Fmt() error {
	args := append([]string{"-s", "-l"}, sourceDirs...)
	out, err := sh.Output(binGofmt, args...)
	if err != nil {
		return err
	}
	if out = strings.TrimSpace(out); out != "" {
		return fmt.Errorf("files need gofmt -s:\n%s", out)
	}
	return nil
}
