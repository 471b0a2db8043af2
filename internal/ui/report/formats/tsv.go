package formats

import (
	"fmt"
	"strings"
)

// GenerateTSV writes one row per finding. Lines and columns are 1-based.
func GenerateTSV(projectRoot string, docs []Document) string {
	var buf strings.Builder

	buf.WriteString("File\tLine\tStartColumn\tEndColumn\tSeverity\tCode\tMessage\n")
	for _, doc := range docs {
		uri := relativeURI(projectRoot, doc.Path)
		for _, f := range doc.Findings {
			buf.WriteString(fmt.Sprintf("%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
				uri,
				f.Line+1,
				f.StartCol+1,
				f.EndCol+1,
				f.Severity,
				f.Code,
				tsvEscape(f.Message),
			))
		}
	}
	return buf.String()
}

func tsvEscape(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
