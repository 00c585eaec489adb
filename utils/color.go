package utils

// Embed colors.
const (
	ColorInfo    = 0x3498DB
	ColorSuccess = 0x2ECC71
	ColorWarn    = 0xE67E22
	ColorError   = 0xE74C3C
)

// Color returns the embed color of a log level. Unknown levels are shown
// as successes.
func (l LogLevel) Color() int {
	switch l {
	case Info:
		return ColorInfo
	case Warn:
		return ColorWarn
	case Error:
		return ColorError
	default:
		return ColorSuccess
	}
}
