package gitrepo

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	httpsSchemeConstant                 = "https"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	tokenUserNameConstant               = "oauth2"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	requiredValueMessageConstant        = "value required"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	unsupportedSchemeMessageConstant    = "only https remotes can carry an access token"
	accessTokenFieldNameConstant        = "access token"
)

// RemoteURL represents a structured HTTPS repository URL.
type RemoteURL struct {
	Host       string
	Owner      string
	Repository string
	Path       string
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRemoteURL converts an HTTPS repository URL into a structured representation.
// Credentials already present in the URL are discarded.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	parsedURL, parseError := url.Parse(trimmedRemote)
	if parseError != nil {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	if !strings.EqualFold(parsedURL.Scheme, httpsSchemeConstant) {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: unsupportedSchemeMessageConstant}
	}
	if len(parsedURL.Host) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}

	trimmedPath := strings.Trim(parsedURL.Path, pathSeparatorConstant)
	pathComponents := strings.Split(trimmedPath, pathSeparatorConstant)
	if len(pathComponents) < 2 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	repository := strings.TrimSuffix(pathComponents[len(pathComponents)-1], gitSuffixConstant)
	if len(pathComponents[0]) == 0 || len(repository) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}

	return RemoteURL{
		Host:       parsedURL.Host,
		Owner:      pathComponents[0],
		Repository: repository,
		Path:       parsedURL.Path,
	}, nil
}

// EmbedAccessToken rewrites an HTTPS repository URL so it carries the token as inline credentials.
// The host and path are preserved exactly.
func EmbedAccessToken(remote string, accessToken string) (string, error) {
	if len(strings.TrimSpace(accessToken)) == 0 {
		return "", RemoteURLParseError{Input: accessTokenFieldNameConstant, Message: requiredValueMessageConstant}
	}

	remoteURL, parseError := ParseRemoteURL(remote)
	if parseError != nil {
		return "", parseError
	}

	authenticatedURL := url.URL{
		Scheme: httpsSchemeConstant,
		User:   url.UserPassword(tokenUserNameConstant, accessToken),
		Host:   remoteURL.Host,
		Path:   remoteURL.Path,
	}
	return authenticatedURL.String(), nil
}
