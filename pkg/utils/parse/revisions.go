// ABOUTME: Utility functions for parsing revision id arguments
// ABOUTME: Accepts space or comma separated lists as typed on a command line

package parse

import "strings"

// RevisionList splits each argument on commas and whitespace and
// drops empty pieces. Order is preserved and duplicates are kept.
func RevisionList(args []string) []string {
	var out []string
	for _, arg := range args {
		fields := strings.FieldsFunc(arg, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
		out = append(out, fields...)
	}
	return out
}
