package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"hydralsp/internal/data/history"
)

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("StartedAt\tRun\tTargets\tErrors\tHints\tDeltaErrors\tDeltaHints\tAvgErrors\n")
	for _, point := range report.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%d\t%d\t%d\t%d\t%d\t%.2f\n",
			point.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			point.RunID,
			point.Targets,
			point.Errors,
			point.Hints,
			point.DeltaErrs,
			point.DeltaHints,
			point.AvgErrors,
		))
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
