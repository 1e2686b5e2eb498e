package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDriverRebind(testInstance *testing.T) {
	testCases := []struct {
		name          string
		driver        Driver
		query         string
		expectedQuery string
	}{
		{
			name:          "postgres_numbers_placeholders",
			driver:        DriverPostgres,
			query:         "SELECT id FROM blocks WHERE org_id = ? AND block_type = ?",
			expectedQuery: "SELECT id FROM blocks WHERE org_id = $1 AND block_type = $2",
		},
		{
			name:          "sqlite_keeps_placeholders",
			driver:        DriverSQLite,
			query:         "SELECT id FROM blocks WHERE org_id = ?",
			expectedQuery: "SELECT id FROM blocks WHERE org_id = ?",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedQuery, testCase.driver.rebind(testCase.query))
		})
	}
}

func TestParseDriver(testInstance *testing.T) {
	parsedPostgres, postgresError := ParseDriver(" PGX ")
	require.NoError(testInstance, postgresError)
	require.Equal(testInstance, DriverPostgres, parsedPostgres)

	parsedSQLite, sqliteError := ParseDriver("sqlite3")
	require.NoError(testInstance, sqliteError)
	require.Equal(testInstance, DriverSQLite, parsedSQLite)

	_, unknownError := ParseDriver("mysql")
	var driverError UnsupportedDriverError
	require.True(testInstance, errors.As(unknownError, &driverError))
	require.Equal(testInstance, "mysql", driverError.Driver)
}
