//go:build tools
// +build tools

// Package tools declares tool dependencies for this module.
//
// The mockgen import keeps the generator used by `go generate ./contract/...`
// pinned in go.mod so a fresh checkout regenerates identical mocks.
package line_chat

import (
	_ "go.uber.org/mock/mockgen"
)
