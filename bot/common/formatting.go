package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount formats an amount with thousand separators, keeping any
// fractional digits
func FormatAmount(amount decimal.Decimal) string {
	str := amount.Abs().String()
	whole, frac, hasFrac := strings.Cut(str, ".")

	n := len(whole)
	var result strings.Builder
	if amount.IsNegative() {
		result.WriteRune('-')
	}
	for i, digit := range whole {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	if hasFrac {
		result.WriteString("." + frac)
	}
	return result.String()
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// TruncateField keeps an embed field value within Discord's 1024 character limit
func TruncateField(value string) string {
	if len(value) > 1024 {
		return value[:1021] + "..."
	}
	return value
}
