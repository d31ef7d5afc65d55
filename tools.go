//go:build tools

package main

// Pins build tooling so `go mod tidy` keeps it in go.mod.
import (
	_ "github.com/go-task/task/v3/cmd/task"
	_ "github.com/golangci/golangci-lint/v2/cmd/golangci-lint"
)
