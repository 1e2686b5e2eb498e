// Package connectors resolves destination metadata from the connector platform's config API.
package connectors
