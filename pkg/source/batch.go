package source

import (
	"fmt"
	"strings"
)

// CleanQuery drops blank and "--" comment lines and the trailing ';'
func CleanQuery(query string) string {
	var kept []string
	for _, line := range strings.Split(query, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}
	q := strings.TrimSpace(strings.Join(kept, "\n"))
	q = strings.TrimRight(q, ";")
	return strings.TrimSpace(q)
}

// HasPagination reports whether q already holds both OFFSET and FETCH
func HasPagination(q string) bool {
	upper := strings.ToUpper(q)
	return strings.Contains(upper, "OFFSET") && strings.Contains(upper, "FETCH")
}

// WrapWithOffset pages query with Oracle 12c OFFSET/FETCH. A query that is
// already paginated is returned cleaned but otherwise unchanged.
func WrapWithOffset(query string, offset, rows int) string {
	q := CleanQuery(query)
	if HasPagination(q) {
		return q
	}
	return fmt.Sprintf("SELECT * FROM (\n%s\n) \nOFFSET %d ROWS FETCH NEXT %d ROWS ONLY", q, offset, rows)
}
