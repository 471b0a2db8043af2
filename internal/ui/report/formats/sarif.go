package formats

import (
	"encoding/json"

	"hydralsp/internal/engine/diagnostics"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
	toolName     = "hydralsp"
)

type sarifReport struct {
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
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

// SARIF regions are 1-based; findings are 0-based.
type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document with one rule per finding code
// that occurs. File URIs are made relative to projectRoot.
func GenerateSARIF(projectRoot, toolVersion string, docs []Document) ([]byte, error) {
	seen := make(map[diagnostics.Code]diagnostics.Severity)
	results := make([]sarifResult, 0)

	for _, doc := range docs {
		uri := relativeURI(projectRoot, doc.Path)
		for _, f := range doc.Findings {
			if _, ok := seen[f.Code]; !ok {
				seen[f.Code] = f.Severity
			}
			results = append(results, sarifResult{
				RuleID:  string(f.Code),
				Level:   sarifLevel(f.Severity),
				Message: sarifMessage{Text: f.Message},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: uri, URIBaseID: "%SRCROOT%"},
						Region: &sarifRegion{
							StartLine:   f.Line + 1,
							StartColumn: f.StartCol + 1,
							EndColumn:   f.EndCol + 1,
						},
					},
				}},
			})
		}
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    toolName,
						Version: toolVersion,
						Rules:   buildSARIFRules(seen),
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules that are relevant for the given findings.
func buildSARIFRules(seen map[diagnostics.Code]diagnostics.Severity) []sarifRule {
	rules := make([]sarifRule, 0, len(seen))
	for _, code := range diagnostics.Codes {
		severity, ok := seen[code]
		if !ok {
			continue
		}
		rules = append(rules, sarifRule{
			ID:               string(code),
			Name:             ruleName(code),
			ShortDescription: sarifMessage{Text: code.Describe()},
			DefaultConfig:    sarifRuleDefaultConfig{Level: sarifLevel(severity)},
		})
	}
	return rules
}

func sarifLevel(s diagnostics.Severity) string {
	switch s {
	case diagnostics.SeverityError:
		return "error"
	case diagnostics.SeverityHint:
		return "note"
	default:
		return "none"
	}
}

// ruleName turns "module-not-found" into "ModuleNotFound".
func ruleName(code diagnostics.Code) string {
	out := make([]byte, 0, len(code))
	upper := true
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c == '-' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	return string(out)
}
