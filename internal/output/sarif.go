// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package output

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/redact"
)

func init() {
	RegisterFormatter(NewSARIFFormatter())
}

// SARIF rule IDs, one per kind of unsuccessful migration.
const (
	RuleMigrationError     = "migration-error"
	RuleMigrationExhausted = "migration-exhausted"
	RuleFormattingWarning  = "formatting-warning"
)

var sarifRules = []sarifRule{
	{ID: RuleMigrationError, ShortDescription: sarifMessage{Text: "Migration failed before producing code"}, DefaultConfig: &sarifReportingConfig{Level: "error"}},
	{ID: RuleMigrationExhausted, ShortDescription: sarifMessage{Text: "Every generation attempt was rejected"}, DefaultConfig: &sarifReportingConfig{Level: "warning"}},
	{ID: RuleFormattingWarning, ShortDescription: sarifMessage{Text: "Generated code could not be formatted"}, DefaultConfig: &sarifReportingConfig{Level: "note"}},
}

// SARIFFormatter writes unsuccessful migrations as a SARIF v2.1.0 document,
// one result per failed, exhausted, or unformatted input. Successful
// migrations produce no result.
type SARIFFormatter struct {
	// Version is the promptshift version embedded in the tool component.
	// If empty, "dev" is used.
	Version string
}

// Compile-time interface check.
var _ Formatter = (*SARIFFormatter)(nil)

// NewSARIFFormatter returns a new SARIFFormatter with default settings.
func NewSARIFFormatter() *SARIFFormatter {
	return &SARIFFormatter{}
}

// Name returns the format name.
func (f *SARIFFormatter) Name() string { return "sarif" }

// Format writes a SARIF document for reports to w. Error text is redacted.
func (f *SARIFFormatter) Format(reports []Report, w io.Writer) error {
	version := f.Version
	if version == "" {
		version = "dev"
	}
	doc := sarifDocument{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    "promptshift",
				Version: version,
				Rules:   sarifRules,
			}},
			Results: buildSARIFResults(reports),
		}},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sarif: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write sarif: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write sarif trailing newline: %w", err)
	}
	return nil
}

type sarifDocument struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                `json:"id"`
	ShortDescription sarifMessage          `json:"shortDescription"`
	DefaultConfig    *sarifReportingConfig `json:"defaultConfiguration,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifReportingConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Properties          *sarifProperties  `json:"properties,omitempty"`
}

type sarifProperties struct {
	MigrationID string   `json:"migrationId,omitempty"`
	From        string   `json:"from,omitempty"`
	To          string   `json:"to,omitempty"`
	Attempts    int      `json:"attempts"`
	Categories  []string `json:"categories,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

func buildSARIFResults(reports []Report) []sarifResult {
	results := make([]sarifResult, 0, len(reports))
	for _, r := range reports {
		ruleID, text := sarifRuleFor(r)
		if ruleID == "" {
			continue
		}
		idx := slices.IndexFunc(sarifRules, func(rule sarifRule) bool { return rule.ID == ruleID })

		res := sarifResult{
			RuleID:    ruleID,
			RuleIndex: idx,
			Level:     sarifRules[idx].DefaultConfig.Level,
			Message:   sarifMessage{Text: text},
			PartialFingerprints: map[string]string{
				"promptshift/v1": sarifFingerprint(r, ruleID),
			},
			Properties: &sarifProperties{From: r.From, To: r.To},
		}
		if r.Source != "" && r.Source != "-" {
			res.Locations = []sarifLocation{{PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: r.Source, URIBaseID: "%SRCROOT%"},
			}}}
		}
		if o := r.Outcome; o != nil {
			res.Properties.MigrationID = o.MigrationID
			res.Properties.Attempts = o.Attempts
			for _, ferr := range o.Failures {
				c := string(migrate.Category(ferr))
				if !slices.Contains(res.Properties.Categories, c) {
					res.Properties.Categories = append(res.Properties.Categories, c)
				}
			}
		}
		results = append(results, res)
	}
	return results
}

// sarifRuleFor picks the rule a report violates, or "" when it succeeded.
func sarifRuleFor(r Report) (string, string) {
	switch {
	case r.Err != nil:
		return RuleMigrationError, redact.Error(r.Err)
	case r.Outcome == nil:
		return RuleMigrationError, "no outcome"
	case r.Outcome.Exhausted():
		text := fmt.Sprintf("no valid constructor after %d attempts", r.Outcome.Attempts)
		if n := len(r.Outcome.Failures); n > 0 {
			text += "; last error: " + redact.Error(r.Outcome.Failures[n-1])
		}
		return RuleMigrationExhausted, text
	case r.Outcome.Warning != nil:
		return RuleFormattingWarning, redact.Error(r.Outcome.Warning)
	default:
		return "", ""
	}
}

// sarifFingerprint is stable across runs for the same input and target.
func sarifFingerprint(r Report, ruleID string) string {
	sum := sha256.Sum256([]byte(ruleID + "\x00" + r.Source + "\x00" + r.From + "\x00" + r.To))
	return hex.EncodeToString(sum[:8])
}
