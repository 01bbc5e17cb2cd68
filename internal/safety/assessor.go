package safety

import (
	"fmt"

	"MedFlowScope/internal/config"
	"MedFlowScope/internal/model"
	"MedFlowScope/internal/registry"
)

// Verdict is the overall outcome of a safety assessment.
type Verdict int

const (
	// VerdictSafe means every critical device reported data and stayed
	// inside the thresholds.
	VerdictSafe Verdict = iota
	// VerdictUnsafe means at least one critical device violated a threshold
	// or produced no flow while others did.
	VerdictUnsafe
	// VerdictNoData means no critical device produced any metrics. This is a
	// distinct outcome: absence of evidence never counts as a pass.
	VerdictNoData
)

func (v Verdict) String() string {
	switch v {
	case VerdictSafe:
		return "SAFE"
	case VerdictUnsafe:
		return "UNSAFE"
	case VerdictNoData:
		return "NO DATA"
	default:
		return "UNKNOWN"
	}
}

// Thresholds are the fixed bounds applied to critical-role devices.
type Thresholds struct {
	MaxLatencyMs         float64
	MaxCompletionTimeSec float64
}

// ThresholdsFromConfig lifts the config section into Thresholds.
func ThresholdsFromConfig(cfg config.SafetyConfig) Thresholds {
	return Thresholds{
		MaxLatencyMs:         cfg.MaxLatencyMs,
		MaxCompletionTimeSec: cfg.MaxCompletionTimeSec,
	}
}

// Condition names.
const (
	ConditionLatency    = "latency"
	ConditionCompletion = "completion"
)

// Condition is a single threshold check together with the measured value, so
// an operator can see how far off a failing flow was.
type Condition struct {
	Name      string
	Satisfied bool
	Measured  float64
	Bound     float64
	Detail    string
}

// DeviceAssessment is the per-device outcome for one critical device.
type DeviceAssessment struct {
	Device     string
	FlowID     uint32
	HasData    bool
	Safe       bool
	Conditions []Condition
}

// Failures returns the unsatisfied conditions.
func (a DeviceAssessment) Failures() []Condition {
	var failed []Condition
	for _, c := range a.Conditions {
		if !c.Satisfied {
			failed = append(failed, c)
		}
	}
	return failed
}

// Report is the full result of a safety assessment over one run.
type Report struct {
	Verdict    Verdict
	Thresholds Thresholds
	Devices    []DeviceAssessment
}

// Assess applies the thresholds to every critical-role device in the
// registry. A critical device is safe iff its average latency stays under the
// latency bound AND its task both completed and finished within the
// completion budget. Completion measures volume and timeliness together;
// latency is checked independently.
func Assess(ms []*model.DeviceMetrics, reg *registry.Registry, th Thresholds) Report {
	report := Report{Thresholds: th}

	anyData := false
	allSafe := true
	for _, name := range reg.CriticalDevices() {
		found := false
		for _, m := range ms {
			if m.Device != name {
				continue
			}
			found = true
			anyData = true
			a := assessDevice(m, th)
			if !a.Safe {
				allSafe = false
			}
			report.Devices = append(report.Devices, a)
		}
		if !found {
			allSafe = false
			report.Devices = append(report.Devices, DeviceAssessment{
				Device:  name,
				HasData: false,
			})
		}
	}

	switch {
	case !anyData:
		report.Verdict = VerdictNoData
	case allSafe:
		report.Verdict = VerdictSafe
	default:
		report.Verdict = VerdictUnsafe
	}

	return report
}

func assessDevice(m *model.DeviceMetrics, th Thresholds) DeviceAssessment {
	latency := Condition{
		Name:      ConditionLatency,
		Satisfied: m.AvgLatencyMs < th.MaxLatencyMs,
		Measured:  m.AvgLatencyMs,
		Bound:     th.MaxLatencyMs,
	}
	if !latency.Satisfied {
		latency.Detail = fmt.Sprintf("latency %.2fms exceeds %.0fms limit", m.AvgLatencyMs, th.MaxLatencyMs)
	}

	completion := Condition{
		Name:      ConditionCompletion,
		Satisfied: m.TaskCompletionTimeSec < th.MaxCompletionTimeSec && m.TaskCompleted,
		Measured:  m.TaskCompletionTimeSec,
		Bound:     th.MaxCompletionTimeSec,
	}
	if !completion.Satisfied {
		if !m.TaskCompleted {
			completion.Detail = fmt.Sprintf("task incomplete: %d of %d packets received", m.RxPackets, m.TaskTargetPackets)
		} else {
			completion.Detail = fmt.Sprintf("task time %.3fs exceeds %.0fs limit", m.TaskCompletionTimeSec, th.MaxCompletionTimeSec)
		}
	}

	return DeviceAssessment{
		Device:     m.Device,
		FlowID:     m.FlowID,
		HasData:    true,
		Safe:       latency.Satisfied && completion.Satisfied,
		Conditions: []Condition{latency, completion},
	}
}
