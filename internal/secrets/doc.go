// Package secrets retrieves warehouse credentials and source-control tokens from AWS Secrets Manager.
package secrets
