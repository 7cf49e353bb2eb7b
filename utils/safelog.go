// ============================================================================
// SAFE LOGGING - masks personal data in production output
// ============================================================================

package utils

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
)

var (
	// IsProduction gates masking: in production, emails and bearer
	// tokens never reach the logs in clear text.
	IsProduction = os.Getenv("GIN_MODE") == "release" ||
		os.Getenv("ENVIRONMENT") == "production" ||
		os.Getenv("ENV") == "production"

	LogLevel = getLogLevel()
)

const (
	LogLevelDebug = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func getLogLevel() int {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	tokenPattern = regexp.MustCompile(`(?i)(token|bearer)[=: ]+[a-zA-Z0-9\-._~+/]{8,}`)
)

// MaskEmail keeps the first character and the domain: j***@example.com
func MaskEmail(email string) string {
	if !IsProduction {
		return email
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// MaskToken keeps a short prefix so related log lines stay correlatable.
func MaskToken(token string) string {
	if !IsProduction {
		return token
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "***"
}

func sanitize(msg string) string {
	if !IsProduction {
		return msg
	}
	msg = emailPattern.ReplaceAllStringFunc(msg, func(m string) string { return MaskEmail(m) })
	msg = tokenPattern.ReplaceAllString(msg, "$1=***")
	return msg
}

func Debugf(format string, args ...interface{}) {
	if LogLevel <= LogLevelDebug {
		log.Print(sanitize(fmt.Sprintf("🔍 "+format, args...)))
	}
}

func Infof(format string, args ...interface{}) {
	if LogLevel <= LogLevelInfo {
		log.Print(sanitize(fmt.Sprintf(format, args...)))
	}
}

func Warnf(format string, args ...interface{}) {
	if LogLevel <= LogLevelWarn {
		log.Print(sanitize(fmt.Sprintf("⚠️ "+format, args...)))
	}
}

func Errorf(format string, args ...interface{}) {
	if LogLevel <= LogLevelError {
		log.Print(sanitize(fmt.Sprintf("❌ "+format, args...)))
	}
}
