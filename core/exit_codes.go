package core

// Exit codes for the application. Signal-based exits follow the Unix
// convention of 128 + signal number.
const (
	// ExitCodeSuccess indicates clean shutdown.
	ExitCodeSuccess = 0

	// ExitCodeError indicates a startup or runtime failure.
	ExitCodeError = 1

	// ExitCodeSIGINT indicates termination via Ctrl+C (128 + 2).
	ExitCodeSIGINT = 130

	// ExitCodeSIGTERM indicates termination via SIGTERM (128 + 15).
	ExitCodeSIGTERM = 143
)

// ExitCodeName returns a human-readable name for an exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeSIGINT:
		return "interrupted (SIGINT)"
	case ExitCodeSIGTERM:
		return "terminated (SIGTERM)"
	default:
		return "unknown"
	}
}
