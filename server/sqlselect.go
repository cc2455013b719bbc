package server

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mrold/sphinxgo/wire"
)

// sqlSelect is the handful of SELECT clauses the MySQL listener
// understands: `SELECT * FROM <index>[,<index>...] [WHERE MATCH('q')]
// [LIMIT [off,]n]` (§6.3's SphinxQL subset).
type sqlSelect struct {
	indexes string
	match   string
	offset  uint32
	limit   uint32
}

var (
	reFrom  = regexp.MustCompile(`(?i)FROM\s+([a-zA-Z0-9_,\s]+?)(?:\s+WHERE|\s+LIMIT|\s*$)`)
	reMatch = regexp.MustCompile(`(?i)MATCH\s*\(\s*'((?:[^'\\]|\\.)*)'\s*\)`)
	reLimit = regexp.MustCompile(`(?i)LIMIT\s+(\d+)(?:\s*,\s*(\d+))?`)
)

// parseSQLSelect extracts the FROM/MATCH/LIMIT clauses this core acts
// on; unrecognized clauses (GROUP BY, ORDER BY, arbitrary WHERE
// expressions) are silently ignored rather than rejected, since a
// client may carry them for a real MySQL server's benefit.
func parseSQLSelect(sql string) sqlSelect {
	out := sqlSelect{limit: 20}
	if m := reFrom.FindStringSubmatch(sql); m != nil {
		out.indexes = strings.TrimSpace(m[1])
	}
	if m := reMatch.FindStringSubmatch(sql); m != nil {
		out.match = strings.ReplaceAll(m[1], `\'`, `'`)
	}
	if m := reLimit.FindStringSubmatch(sql); m != nil {
		if m[2] != "" {
			off, _ := strconv.ParseUint(m[1], 10, 32)
			lim, _ := strconv.ParseUint(m[2], 10, 32)
			out.offset, out.limit = uint32(off), uint32(lim)
		} else {
			lim, _ := strconv.ParseUint(m[1], 10, 32)
			out.limit = uint32(lim)
		}
	}
	return out
}

func (s sqlSelect) toSearchQuery() wire.SearchQuery {
	return wire.SearchQuery{
		Indexes:    s.indexes,
		Query:      s.match,
		Offset:     s.offset,
		Limit:      s.limit,
		MaxMatches: s.limit,
	}
}
