// Package normalize extracts one canonical analysis result from the
// backend's loosely-specified response payload. The score and the finding
// lists may live at several legacy locations; the first present candidate
// wins, and anything malformed degrades to a zero-score, empty-list result
// instead of an error.
package normalize

import (
	"log"
	"strings"
)

// Severity display tiers
const (
	TierHigh         = "high" // HIGH and CRITICAL share a tier
	TierMedium       = "medium"
	TierLow          = "low"
	TierUnclassified = "unclassified"
)

// Score-to-status bands, inclusive lower bounds
const (
	StatusExcellent = "excellent" // >= 80
	StatusGood      = "good"      // >= 60
	StatusModerate  = "moderate"  // >= 40
	StatusCritical  = "critical"
)

// Gauge colors driven by the same thresholds
const (
	GaugeGreen   = "green"
	GaugeAmber   = "amber"
	GaugeRed     = "red"
	GaugeDarkRed = "dark_red"
)

// Finding is one issue or compliant item from the analysis.
type Finding struct {
	Title           string   `json:"title"`
	Explanation     string   `json:"explanation"`
	Severity        string   `json:"severity"`
	Tier            string   `json:"tier"`
	Recommendations []string `json:"recommendations"`
	Reference       string   `json:"reference"`
}

// Result is the canonical shape every analysis response collapses into.
type Result struct {
	Score          float64   `json:"score"`
	Issues         []Finding `json:"issues"`
	CompliantItems []Finding `json:"compliant_items"`
}

// Normalizer resolves canonical values from the multi-variant payload
type Normalizer struct {
	logger *log.Logger
}

func NewNormalizer(logger *log.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize extracts {score, issues, compliant items} from a raw analysis
// payload. It never fails: an empty result with score 0 is a valid outcome
// and callers render it as "no issues found", not as an error.
func (n *Normalizer) Normalize(raw map[string]interface{}) *Result {
	result := &Result{
		Issues:         []Finding{},
		CompliantItems: []Finding{},
	}
	if raw == nil {
		return result
	}

	result.Score = n.resolveScore(raw)
	result.Issues = n.resolveFindings(raw, "issues")
	result.CompliantItems = n.resolveFindings(raw, "compliant_items")

	if n.logger != nil {
		n.logger.Printf("[NORMALIZE] score=%.1f issues=%d compliant=%d",
			result.Score, len(result.Issues), len(result.CompliantItems))
	}
	return result
}

// resolveScore probes summary.compliance_score, then compliance_score, then
// analysis.compliance_score. First present numeric value wins; never merged.
func (n *Normalizer) resolveScore(raw map[string]interface{}) float64 {
	if summary, ok := raw["summary"].(map[string]interface{}); ok {
		if score, ok := asNumber(summary["compliance_score"]); ok {
			return score
		}
	}
	if score, ok := asNumber(raw["compliance_score"]); ok {
		return score
	}
	if analysis, ok := raw["analysis"].(map[string]interface{}); ok {
		if score, ok := asNumber(analysis["compliance_score"]); ok {
			return score
		}
	}
	return 0
}

// resolveFindings probes <field>, summary.<field>, analysis.<field>. Only the
// first non-absent array is used, even when it is empty. Non-array values in
// a slot count as absent and fall through.
func (n *Normalizer) resolveFindings(raw map[string]interface{}, field string) []Finding {
	if list, ok := raw[field].([]interface{}); ok {
		return n.mapFindings(list)
	}
	if summary, ok := raw["summary"].(map[string]interface{}); ok {
		if list, ok := summary[field].([]interface{}); ok {
			return n.mapFindings(list)
		}
	}
	if analysis, ok := raw["analysis"].(map[string]interface{}); ok {
		if list, ok := analysis[field].([]interface{}); ok {
			return n.mapFindings(list)
		}
	}
	return []Finding{}
}

func (n *Normalizer) mapFindings(list []interface{}) []Finding {
	findings := make([]Finding, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		severity := asString(entry["severity"])
		if severity == "" {
			severity = "MEDIUM"
		}
		finding := Finding{
			Title:           firstString(entry, "aspect", "title"),
			Explanation:     firstString(entry, "explanation", "description"),
			Severity:        severity,
			Tier:            ClassifySeverity(severity),
			Recommendations: asStringList(entry["recommendations"]),
			Reference:       asString(entry["reference"]),
		}
		findings = append(findings, finding)
	}
	return findings
}

// ClassifySeverity maps a severity label to its display tier. Comparison is
// case-insensitive and unknown labels degrade to the unclassified tier; the
// classification drives sorting and styling only, never drops data.
func ClassifySeverity(severity string) string {
	switch strings.ToUpper(strings.TrimSpace(severity)) {
	case "HIGH", "CRITICAL":
		return TierHigh
	case "MEDIUM":
		return TierMedium
	case "LOW":
		return TierLow
	default:
		return TierUnclassified
	}
}

// ScoreStatus bands a 0-100 score into a status tier.
func ScoreStatus(score float64) string {
	switch {
	case score >= 80:
		return StatusExcellent
	case score >= 60:
		return StatusGood
	case score >= 40:
		return StatusModerate
	default:
		return StatusCritical
	}
}

// ScoreGauge returns the circular-gauge color for a score. Same thresholds
// as ScoreStatus.
func ScoreGauge(score float64) string {
	switch {
	case score >= 80:
		return GaugeGreen
	case score >= 60:
		return GaugeAmber
	case score >= 40:
		return GaugeRed
	default:
		return GaugeDarkRed
	}
}

// --- Tolerant value helpers ---

func asNumber(v interface{}) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	default:
		return 0, false
	}
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func firstString(entry map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := asString(entry[key]); s != "" {
			return s
		}
	}
	return ""
}

func asStringList(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
