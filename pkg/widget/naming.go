package widget

import (
	"strings"
	"unicode"
)

// ToolName derives the external tool identifier from a display name: the
// name is lowercased, every run of characters that are not letters or digits
// collapses to a single underscore, and leading or trailing underscores are
// trimmed. "Flight Tracker" becomes "flight_tracker". The result may be empty.
func ToolName(display string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(display) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// CamelName converts a tool identifier into UpperCamelCase:
// "flight_tracker" becomes "FlightTracker".
func CamelName(identifier string) string {
	var b strings.Builder
	for _, part := range strings.Split(identifier, "_") {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// ModelName returns the compiled model name for a display name,
// e.g. "FlightTrackerModel".
func ModelName(display string) string {
	return CamelName(ToolName(display)) + "Model"
}

// ArgumentsTitle returns the title advertised for a tool's input schema,
// e.g. "FlightTrackerArguments".
func ArgumentsTitle(display string) string {
	return CamelName(ToolName(display)) + "Arguments"
}
