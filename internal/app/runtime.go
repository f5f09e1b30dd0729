package app

import "os"

// InTestMode reports whether the process runs under the test harness.
// The testing package sets KITABU_TEST_MODE so binaries started by go test
// skip runtime startup.
func InTestMode() bool {
	return os.Getenv("KITABU_TEST_MODE") == "1"
}
