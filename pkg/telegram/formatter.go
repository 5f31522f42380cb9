package telegram

import (
	"fmt"
	"time"
)

// FormatBreachAlert renders an ops-channel message for a breached challenge.
func FormatBreachAlert(challengeID int64, email, reason, details string, finalBalance float64, at time.Time) string {
	return fmt.Sprintf(
		"🚨 *Challenge Breached*\n"+
			"🆔 Challenge: `%d`\n"+
			"👤 User: %s\n"+
			"📉 Reason: %s\n"+
			"💬 %s\n"+
			"💰 Final balance: $%.2f\n"+
			"🕒 %s",
		challengeID, email, reason, details, finalBalance, at.Format(time.RFC3339))
}

// FormatWarningAlert renders an ops-channel message for a rule warning.
func FormatWarningAlert(challengeID int64, email, warningType string, currentValue, limitValue float64, thresholdPercent int) string {
	return fmt.Sprintf(
		"⚠️ *Rule Warning (%d%%)*\n"+
			"🆔 Challenge: `%d`\n"+
			"👤 User: %s\n"+
			"📏 %s: %.2f%% of %.2f%% limit",
		thresholdPercent, challengeID, email, warningType, currentValue, limitValue)
}
