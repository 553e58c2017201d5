package actions

import (
	"fmt"
	"os"
	"strings"
)

// Detect reports whether the process is running inside a GitHub Actions
// runner.
func Detect() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Notice emits a ::notice workflow command, surfaced in the run summary.
func Notice(format string, args ...interface{}) {
	emit("notice", fmt.Sprintf(format, args...))
}

// Warning emits a ::warning workflow command.
func Warning(format string, args ...interface{}) {
	emit("warning", fmt.Sprintf(format, args...))
}

// Errorf emits an ::error workflow command.
func Errorf(format string, args ...interface{}) {
	emit("error", fmt.Sprintf(format, args...))
}

// emit writes a workflow command to stdout. Newlines are escaped per the
// workflow command data format.
func emit(level, message string) {
	escaped := strings.NewReplacer(
		"%", "%25",
		"\r", "%0D",
		"\n", "%0A",
	).Replace(message)
	fmt.Fprintf(os.Stdout, "::%s::%s\n", level, escaped)
}
