// Package transform inspects an org's transformation workspace on the local filesystem.
//
// Workspace checks that the transformation tool's virtual environment exists and reads the
// project descriptor stored at {client root}/{org slug}/dbtrepo/dbt_project.yml.
package transform
