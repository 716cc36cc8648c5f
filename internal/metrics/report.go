package metrics

import (
	"fmt"
	"strings"
)

// FormatReport renders usage and health as Markdown.
func FormatReport(usage []DailyUsage, health SysHealth) string {
	var sb strings.Builder
	sb.WriteString("# 📊 Usage & Health Report\n\n")

	sb.WriteString("## 🗓 Recent Menu Generations\n\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("- **%s**: %d requests, %d failed, avg %dms\n", d.Date, d.Total, d.Failures, d.AvgLatencyMS))
	}

	sb.WriteString("\n## 🧠 System Health\n\n")
	sb.WriteString(fmt.Sprintf("- RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("- Goroutines: %d\n", health.Goroutines))
	if health.DataDiskSize != "" {
		sb.WriteString(fmt.Sprintf("- Disk Data: %s\n", health.DataDiskSize))
	}
	sb.WriteString(fmt.Sprintf("- Uptime: %s\n", health.Uptime))
	return sb.String()
}
