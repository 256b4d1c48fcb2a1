package xlog

const (
	colorReset = "\033[0m"

	colorDebug   = "\033[1;36m"
	colorWarning = "\033[1;33m"
	colorError   = "\033[1;31m"
)

// FixColor returns the ANSI prefix and reset for a level. Info stays
// uncolored so normal output does not light up the terminal.
func FixColor(level string) (string, string) {
	switch level {
	case "debug":
		return colorDebug, colorReset
	case "warn", "warning":
		return colorWarning, colorReset
	case "error", "fatal":
		return colorError, colorReset
	default:
		return "", ""
	}
}
