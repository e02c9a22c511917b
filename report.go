package gemmbench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// TimerInfo records the iteration counts a report was measured with.
type TimerInfo struct {
	Warmup   int `json:"warmup"`
	Measured int `json:"measured"`
}

// VariantResult captures correctness and timing of one variant
type VariantResult struct {
	Name       string        `json:"name"`
	Class      string        `json:"class"`
	Layout     string        `json:"layout"`
	Skipped    bool          `json:"skipped,omitempty"`
	Error      string        `json:"error,omitempty"`
	Comparison *Comparison   `json:"comparison,omitempty"`
	Timing     *Timing       `json:"timing,omitempty"`
	Profile    *PerfCounters `json:"profile,omitempty"`
}

// Passed reports whether the variant ran and matched the reference.
func (r VariantResult) Passed() bool {
	return !r.Skipped && r.Comparison != nil && r.Comparison.Pass
}

// Report is the outcome of one Orchestrator.Run
type Report struct {
	Shape     Shape           `json:"shape"`
	DType     string          `json:"dtype"`
	Device    string          `json:"device"`
	Tolerance Tolerance       `json:"tolerance"`
	Timer     TimerInfo       `json:"timer"`
	Reference Timing          `json:"reference"`
	Results   []VariantResult `json:"results"`
	PeakBytes int64           `json:"peak_bytes"`
	Timestamp time.Time       `json:"timestamp"`
}

// Failed returns the names of variants that ran but did not match.
func (r *Report) Failed() []string {
	var names []string
	for _, res := range r.Results {
		if !res.Skipped && !res.Passed() {
			names = append(names, res.Name)
		}
	}
	return names
}

// WriteText prints the report as plain text lines in variant order:
// verdicts, per-variant latency, and a final line of all latencies with the
// reference first.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "shape %s %s on %s (rtol=%g atol=%g)\n",
		r.Shape, r.DType, r.Device, r.Tolerance.RelTol, r.Tolerance.AbsTol)

	for _, res := range r.Results {
		switch {
		case res.Skipped:
			fmt.Fprintf(&b, "%s verse %s: skipped (%s)\n", res.Name, ReferenceName, res.Error)
		default:
			fmt.Fprintf(&b, "%s verse %s: %t\n", res.Name, ReferenceName, res.Passed())
		}
	}

	durations := []string{fmt.Sprintf("%.4f", r.Reference.Milliseconds)}
	fmt.Fprintf(&b, "%-28s %.4f ms\n", ReferenceName, r.Reference.Milliseconds)
	for _, res := range r.Results {
		if res.Timing == nil {
			continue
		}
		flag := ""
		if !res.Passed() {
			flag = "  FAIL (unvalidated)"
		}
		fmt.Fprintf(&b, "%-28s %.4f ms%s\n", res.Name, res.Timing.Milliseconds, flag)
		durations = append(durations, fmt.Sprintf("%.4f", res.Timing.Milliseconds))
	}
	b.WriteString(strings.Join(durations, " "))
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes the report as indented JSON, stamping it with the
// current time.
func (r *Report) WriteJSON(w io.Writer) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
