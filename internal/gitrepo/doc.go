// Package gitrepo parses transformation repository URLs and embeds access tokens into them
// so that a git pull can authenticate without a credential helper.
package gitrepo
