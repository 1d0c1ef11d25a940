package telegram

import (
	"fmt"
	"strings"

	"stock-tracker/internal/tracker/dto"
)

// FormatCycleReport renders a cycle report as a Markdown message for
// Telegram. Intended for failure alerts, so the failure list leads.
func FormatCycleReport(report *dto.CycleReport) string {
	var b strings.Builder

	if report.HasFailures() {
		b.WriteString("🚨 *Stock Tracker Cycle Finished With Failures* 🚨\n\n")
	} else {
		b.WriteString("✅ *Stock Tracker Cycle Completed* ✅\n\n")
	}

	duration := report.CompletedAt.Sub(report.StartedAt).Round(1e6)
	b.WriteString(fmt.Sprintf("*Symbols:* %d\n", report.Symbols))
	b.WriteString(fmt.Sprintf("*Duration:* %s\n\n", duration))

	b.WriteString("*Counts (inserted/updated/skipped/failed):*\n")
	writeCounts(&b, "Stocks", report.Stocks)
	writeCounts(&b, "Price Bars", report.PriceBars)
	writeCounts(&b, "Ticks", report.Ticks)
	writeCounts(&b, "Articles", report.Articles)
	writeCounts(&b, "Sentiments", report.Sentiments)
	writeCounts(&b, "Summaries", report.Summaries)

	if report.HasFailures() {
		b.WriteString("\n*Failures:*\n")
		for _, failure := range report.Failures {
			b.WriteString(fmt.Sprintf("❌ `%s` [%s/%s]: %s\n",
				failure.Symbol, failure.Stage, failure.Kind, failure.Error))
		}
	}

	const maxLen = 4090
	message := b.String()
	if len(message) > maxLen {
		message = message[:maxLen]
	}
	return message
}

func writeCounts(b *strings.Builder, name string, counts dto.Counts) {
	b.WriteString(fmt.Sprintf("• %s: %d/%d/%d/%d\n",
		name, counts.Inserted, counts.Updated, counts.Skipped, counts.Failed))
}
