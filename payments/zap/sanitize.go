package zap

import "strings"

// controlCharReplacer escapes control characters so a message quoting raw
// input cannot forge extra console log lines (CWE-117). The JSON encoder
// already escapes string values.
var controlCharReplacer = strings.NewReplacer(
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func sanitizeString(s string) string {
	return controlCharReplacer.Replace(s)
}
