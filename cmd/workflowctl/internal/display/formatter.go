package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/metahuman-os/workflow-memory/pkg/functions"
)

const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
)

func FormatFunctionList(records []*functions.FunctionMemory) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("%s%sLearned Workflow Functions%s\n", ColorBold, ColorBlue, ColorReset))
	output.WriteString(strings.Repeat("=", 50) + "\n\n")

	if len(records) == 0 {
		output.WriteString("No functions stored.\n")
		return output.String()
	}

	for _, record := range records {
		trust := trustColor(record.Metadata.TrustLevel)
		output.WriteString(fmt.Sprintf("%s%s%s%s\n", ColorBold, ColorGreen, record.Title, ColorReset))
		output.WriteString(fmt.Sprintf("  %sid:%s %s\n", ColorCyan, ColorReset, record.ID))
		output.WriteString(fmt.Sprintf("  %sTrust:%s %s%s%s | %sQuality:%s %.2f | %sUsed:%s %d (%d ok)\n",
			ColorCyan, ColorReset, trust, record.Metadata.TrustLevel, ColorReset,
			ColorCyan, ColorReset, record.Metadata.QualityScore,
			ColorCyan, ColorReset, record.Metadata.UsageCount, record.Metadata.SuccessCount))
		output.WriteString(fmt.Sprintf("  %sSteps:%s %s\n", ColorYellow, ColorReset, stepLine(record.Steps)))
		output.WriteString("\n")
	}

	output.WriteString(fmt.Sprintf("%sTip:%s Use 'workflowctl show <id>' for full details\n",
		ColorPurple, ColorReset))

	return output.String()
}

func FormatFunctionDetails(record *functions.FunctionMemory) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("%s%s%s%s\n", ColorBold, ColorBlue, record.Title, ColorReset))
	output.WriteString(strings.Repeat("=", len(record.Title)+10) + "\n\n")

	if record.Description != "" {
		output.WriteString(fmt.Sprintf("%sDescription:%s\n%s\n\n", ColorBold, ColorReset, record.Description))
	}

	output.WriteString(fmt.Sprintf("%sMetadata:%s\n", ColorBold, ColorReset))
	trust := trustColor(record.Metadata.TrustLevel)
	output.WriteString(fmt.Sprintf("  • %sTrust:%s %s%s%s\n", ColorCyan, ColorReset, trust, record.Metadata.TrustLevel, ColorReset))
	output.WriteString(fmt.Sprintf("  • %sQuality:%s %.2f\n", ColorCyan, ColorReset, record.Metadata.QualityScore))
	output.WriteString(fmt.Sprintf("  • %sPattern:%s %s\n", ColorCyan, ColorReset, record.Metadata.PatternType))
	output.WriteString(fmt.Sprintf("  • %sUsage:%s %d runs, %d successful\n", ColorCyan, ColorReset,
		record.Metadata.UsageCount, record.Metadata.SuccessCount))
	output.WriteString(fmt.Sprintf("  • %sCreated:%s %s\n", ColorCyan, ColorReset,
		record.Metadata.CreatedAt.Format(time.RFC3339)))
	if !record.Metadata.LastUsedAt.IsZero() {
		output.WriteString(fmt.Sprintf("  • %sLast used:%s %s\n", ColorCyan, ColorReset,
			record.Metadata.LastUsedAt.Format(time.RFC3339)))
	}

	output.WriteString(fmt.Sprintf("\n%sSteps:%s\n", ColorBold, ColorReset))
	for i, step := range record.Steps {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step.SkillID))
		if step.InputTemplate != "" {
			output.WriteString(fmt.Sprintf("     input: %s\n", step.InputTemplate))
		}
		if step.ExpectedOutcome != "" {
			output.WriteString(fmt.Sprintf("     expects: %s\n", step.ExpectedOutcome))
		}
	}

	if len(record.Examples) > 0 {
		output.WriteString(fmt.Sprintf("\n%sExamples:%s\n", ColorBold, ColorReset))
		for _, example := range record.Examples {
			output.WriteString(fmt.Sprintf("  • %s\n", example.GoalText))
			if example.ResultSummary != "" {
				output.WriteString(fmt.Sprintf("    %s\n", example.ResultSummary))
			}
		}
	}

	return output.String()
}

func FormatStoreStats(stats functions.StoreStats) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("%s%sFunction Store%s\n", ColorBold, ColorBlue, ColorReset))
	output.WriteString(strings.Repeat("=", 30) + "\n\n")
	output.WriteString(fmt.Sprintf("  %sDrafts:%s   %d (%s)\n", ColorCyan, ColorReset,
		stats.DraftCount, formatBytes(stats.DraftBytes)))
	output.WriteString(fmt.Sprintf("  %sVerified:%s %d (%s)\n", ColorCyan, ColorReset,
		stats.VerifiedCount, formatBytes(stats.VerifiedBytes)))

	return output.String()
}

func FormatMaintenanceReport(report functions.MaintenanceReport) string {
	var output strings.Builder

	header := "Maintenance Pass"
	if report.DryRun {
		header = "Maintenance Pass (dry run)"
	}
	output.WriteString(fmt.Sprintf("%s%s%s%s\n", ColorBold, ColorBlue, header, ColorReset))
	output.WriteString(strings.Repeat("=", 30) + "\n\n")

	output.WriteString(fmt.Sprintf("  %sDuplicate groups:%s %d\n", ColorCyan, ColorReset, report.GroupsFound))
	output.WriteString(fmt.Sprintf("  %sMerged:%s          %d\n", ColorCyan, ColorReset, report.Merged))
	output.WriteString(fmt.Sprintf("  %sRemoved:%s         %d\n", ColorCyan, ColorReset, report.Removed))
	output.WriteString(fmt.Sprintf("  %sReclaimed:%s       %s\n", ColorCyan, ColorReset,
		formatBytes(report.SpaceReclaimed)))

	if len(report.GroupFailures) > 0 {
		output.WriteString(fmt.Sprintf("\n%s%sFailures:%s\n", ColorBold, ColorRed, ColorReset))
		for _, failure := range report.GroupFailures {
			output.WriteString(fmt.Sprintf("  • %s\n", failure))
		}
	}

	return output.String()
}

func FormatJournal(events []functions.JournalEvent) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("%s%sRecent Events%s\n", ColorBold, ColorBlue, ColorReset))
	output.WriteString(strings.Repeat("=", 30) + "\n\n")

	if len(events) == 0 {
		output.WriteString("No events recorded.\n")
		return output.String()
	}

	for _, event := range events {
		output.WriteString(fmt.Sprintf("%s  %s%s%s", event.CreatedAt.Format("2006-01-02 15:04:05"),
			kindColor(event.Kind), event.Kind, ColorReset))
		if event.FunctionID != "" {
			output.WriteString("  " + event.FunctionID)
		}
		output.WriteString("\n")
		if event.Reason != "" {
			output.WriteString(fmt.Sprintf("    %s\n", event.Reason))
		}
		if event.Details != "" {
			output.WriteString(fmt.Sprintf("    %s\n", event.Details))
		}
	}

	return output.String()
}

func trustColor(trust functions.TrustLevel) string {
	if trust == functions.TrustVerified {
		return ColorGreen
	}
	return ColorYellow
}

func kindColor(kind string) string {
	switch kind {
	case "learned":
		return ColorGreen
	case "rejected":
		return ColorRed
	case "reinforced":
		return ColorCyan
	default:
		return ColorPurple
	}
}

func stepLine(steps []functions.Step) string {
	skills := make([]string, len(steps))
	for i, step := range steps {
		skills[i] = step.SkillID
	}
	return strings.Join(skills, " -> ")
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
