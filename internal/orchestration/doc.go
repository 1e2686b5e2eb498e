// Package orchestration talks to the workflow-orchestration proxy that owns remote deployments
// and blocks.
//
// Client reads and updates deployment parameters and provisions the transformation
// profile and secret blocks that the migrated task model references.
package orchestration
