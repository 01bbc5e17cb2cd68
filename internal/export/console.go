package export

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"MedFlowScope/internal/model"
	"MedFlowScope/internal/safety"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.DoubleBorder())

	sectionStyle = lipgloss.NewStyle().Bold(true)

	unsafeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	safeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	noDataStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

// RenderConsoleReport formats the network-quality table, the task-completion
// table and the safety narrative for terminal output. Rendering is pure
// presentation over an already derived metrics collection.
func RenderConsoleReport(ms []*model.DeviceMetrics, rep safety.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("SURGICAL IOMT NETWORK METRICS - LATENCY & TASK COMPLETION"))
	b.WriteString("\n\n")

	quality := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Device", "Tx Pkts", "Rx Pkts", "Loss (%)", "Latency (ms)", "Jitter (ms)")
	for _, m := range ms {
		quality.Row(
			m.Device,
			fmt.Sprintf("%d", m.TxPackets),
			fmt.Sprintf("%d", m.RxPackets),
			fmt.Sprintf("%.2f", m.LossRatePercent),
			fmt.Sprintf("%.2f", m.AvgLatencyMs),
			fmt.Sprintf("%.2f", m.AvgJitterMs),
		)
	}
	b.WriteString(quality.Render())
	b.WriteString("\n\n")

	completion := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Device", "Task Target (pkts)", "Completed?", "Completion Time (s)", "Success Rate (%)")
	for _, m := range ms {
		completion.Row(
			m.Device,
			fmt.Sprintf("%d", m.TaskTargetPackets),
			completionStatus(m),
			fmt.Sprintf("%.3f", m.TaskCompletionTimeSec),
			fmt.Sprintf("%.1f", m.SuccessRatePercent()),
		)
	}
	b.WriteString(completion.Render())
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("SURGICAL SAFETY ASSESSMENT"))
	b.WriteString("\n")
	b.WriteString(renderSafety(rep))

	return b.String()
}

func completionStatus(m *model.DeviceMetrics) string {
	switch {
	case m.TaskCompleted:
		return "Yes"
	case m.RxPackets > 0:
		return "Partial"
	default:
		return "No"
	}
}

func renderSafety(rep safety.Report) string {
	var b strings.Builder

	for _, d := range rep.Devices {
		switch {
		case !d.HasData:
			fmt.Fprintf(&b, "  %s: no flow data recorded for critical device\n", d.Device)
		case d.Safe:
			fmt.Fprintf(&b, "  %s: latency %.2fms (<%.0fms), task %.3fs (<%.0fs) -> within surgical limits\n",
				d.Device,
				conditionByName(d, safety.ConditionLatency).Measured, rep.Thresholds.MaxLatencyMs,
				conditionByName(d, safety.ConditionCompletion).Measured, rep.Thresholds.MaxCompletionTimeSec)
		default:
			fmt.Fprintf(&b, "  %s: SAFETY THRESHOLDS EXCEEDED\n", d.Device)
			for _, c := range d.Failures() {
				fmt.Fprintf(&b, "    -> %s\n", c.Detail)
			}
		}
	}

	var verdict string
	switch rep.Verdict {
	case safety.VerdictSafe:
		verdict = safeStyle.Render("VERDICT: SAFE FOR SURGERY")
	case safety.VerdictUnsafe:
		verdict = unsafeStyle.Render("VERDICT: UNSAFE - DO NOT PROCEED")
	case safety.VerdictNoData:
		verdict = noDataStyle.Render("VERDICT: NO DATA - critical control channel produced no flows")
	}
	b.WriteString(verdict)
	b.WriteString("\n")

	return b.String()
}

func conditionByName(d safety.DeviceAssessment, name string) safety.Condition {
	for _, c := range d.Conditions {
		if c.Name == name {
			return c
		}
	}
	return safety.Condition{}
}
