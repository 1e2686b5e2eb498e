package store

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	postgresDriverNameConstant        = "pgx"
	sqliteDriverNameConstant          = "sqlite3"
	placeholderCharacterConstant      = '?'
	postgresPlaceholderPrefixConstant = "$"
	unsupportedDriverTemplateConstant = "unsupported database driver %q"
)

// Driver names the database/sql driver backing a SQLStore.
type Driver string

// Supported drivers.
const (
	DriverPostgres Driver = Driver(postgresDriverNameConstant)
	DriverSQLite   Driver = Driver(sqliteDriverNameConstant)
)

// UnsupportedDriverError reports a driver name outside the supported set.
type UnsupportedDriverError struct {
	Driver string
}

// Error describes the unsupported driver.
func (driverError UnsupportedDriverError) Error() string {
	return fmt.Sprintf(unsupportedDriverTemplateConstant, driverError.Driver)
}

// ParseDriver validates a configured driver name.
func ParseDriver(rawDriver string) (Driver, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(rawDriver))) {
	case DriverPostgres:
		return DriverPostgres, nil
	case DriverSQLite:
		return DriverSQLite, nil
	default:
		return "", UnsupportedDriverError{Driver: rawDriver}
	}
}

// rebind rewrites question-mark placeholders into the driver's native form.
func (driver Driver) rebind(query string) string {
	if driver != DriverPostgres {
		return query
	}

	var builder strings.Builder
	builder.Grow(len(query) + 8)
	placeholderIndex := 0
	for _, character := range query {
		if character != placeholderCharacterConstant {
			builder.WriteRune(character)
			continue
		}
		placeholderIndex++
		builder.WriteString(postgresPlaceholderPrefixConstant)
		builder.WriteString(strconv.Itoa(placeholderIndex))
	}
	return builder.String()
}
