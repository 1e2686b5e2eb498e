// Package store persists tenants, blocks, dataflows and task assignments.
//
// SQLStore runs the same statements against PostgreSQL (through the pgx stdlib
// driver) and SQLite (through the ncruces driver); only placeholder syntax
// differs between the two dialects.
package store
