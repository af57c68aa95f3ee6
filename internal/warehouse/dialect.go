package warehouse

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect papers over the few SQL differences between the supported drivers.
type Dialect struct {
	Driver string
	Schema string
}

// Table qualifies a fact table with the configured schema.
func (d Dialect) Table(name string) string {
	if d.Schema == "" {
		return name
	}
	return d.Schema + "." + name
}

// Top returns the row-limiting clause placed right after SELECT.
func (d Dialect) Top(n int) string {
	if d.Driver == DriverSQLServer {
		return fmt.Sprintf("TOP (%d) ", n)
	}
	return ""
}

// Limit returns the row-limiting clause placed at the end of a query.
func (d Dialect) Limit(n int) string {
	if d.Driver == DriverSQLServer {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", n)
}

// SecondsBetween returns an integer expression of the seconds from start to end.
func (d Dialect) SecondsBetween(start, end string) string {
	if d.Driver == DriverSQLServer {
		return fmt.Sprintf("DATEDIFF(SECOND, %s, %s)", start, end)
	}
	return fmt.Sprintf("(CAST(strftime('%%s', %s) AS INTEGER) - CAST(strftime('%%s', %s) AS INTEGER))", end, start)
}

var databaseParam = regexp.MustCompile(`(?i)(?:^|[;?&\s])(?:database|initial catalog)=([^;&]+)`)

// DatabaseName extracts the database from a connection string.
func DatabaseName(dsn string) string {
	m := databaseParam.FindStringSubmatch(dsn)
	if m == nil {
		return "Unknown"
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return "Unknown"
	}
	return name
}

// IsMissingRelation reports whether err says the table or view name does not
// exist. Drivers only expose this through their message text.
func IsMissingRelation(err error, name string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	n := strings.ToLower(name)
	return strings.Contains(msg, "invalid object name '"+n+"'") ||
		strings.Contains(msg, "no such table: "+n) ||
		strings.Contains(msg, `relation "`+n+`" does not exist`) ||
		strings.Contains(msg, "relation "+n+" does not exist")
}
