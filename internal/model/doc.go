// Package model defines the records reconciled by the migration: tenants, legacy
// and current orchestration blocks, dataflows, the task catalog and task assignments.
package model
