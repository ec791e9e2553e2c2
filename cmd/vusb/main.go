package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Exit codes: 0 the drive is compliant, 1 the scan finished and found
// errors, 2 the scan itself could not run.
func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err == nil {
		return
	}
	if errors.Is(err, errNonCompliant) {
		os.Exit(1)
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(2)
}
