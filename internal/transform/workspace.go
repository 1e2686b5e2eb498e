package transform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	repositoryDirectoryNameConstant   = "dbtrepo"
	projectDescriptorFileNameConstant = "dbt_project.yml"
	clientRootMissingMessageConstant  = "transformation client root not configured"
	descriptorMissingTemplate         = "%s is missing"
	descriptorUnreadableTemplate      = "unable to read %s: %s"
	descriptorInvalidTemplate         = "unable to parse %s: %s"
	profileMissingTemplate            = "%s does not declare a profile"
)

// ProjectErrorKind classifies project descriptor failures.
type ProjectErrorKind string

// Descriptor failure kinds.
const (
	ProjectErrorKindMissing    ProjectErrorKind = ProjectErrorKind("missing")
	ProjectErrorKindUnreadable ProjectErrorKind = ProjectErrorKind("unreadable")
	ProjectErrorKindInvalid    ProjectErrorKind = ProjectErrorKind("invalid")
	ProjectErrorKindNoProfile  ProjectErrorKind = ProjectErrorKind("no_profile")
)

// ErrClientRootMissing indicates the workspace was constructed without a client root.
var ErrClientRootMissing = errors.New(clientRootMissingMessageConstant)

// ProjectError reports a project descriptor that cannot be used.
type ProjectError struct {
	Kind  ProjectErrorKind
	Path  string
	Cause error
}

// Error describes the descriptor failure.
func (projectError ProjectError) Error() string {
	switch projectError.Kind {
	case ProjectErrorKindMissing:
		return fmt.Sprintf(descriptorMissingTemplate, projectError.Path)
	case ProjectErrorKindNoProfile:
		return fmt.Sprintf(profileMissingTemplate, projectError.Path)
	case ProjectErrorKindInvalid:
		return fmt.Sprintf(descriptorInvalidTemplate, projectError.Path, projectError.Cause)
	default:
		return fmt.Sprintf(descriptorUnreadableTemplate, projectError.Path, projectError.Cause)
	}
}

// Unwrap exposes the underlying cause.
func (projectError ProjectError) Unwrap() error {
	return projectError.Cause
}

// ProjectDescriptor holds the fields of dbt_project.yml the migration relies on.
type ProjectDescriptor struct {
	Name    string `yaml:"name"`
	Profile string `yaml:"profile"`
	Path    string `yaml:"-"`
}

// Workspace resolves org transformation directories beneath a client root.
type Workspace struct {
	clientRoot string
}

// NewWorkspace constructs a Workspace rooted at clientRoot.
func NewWorkspace(clientRoot string) (*Workspace, error) {
	trimmedRoot := strings.TrimSpace(clientRoot)
	if len(trimmedRoot) == 0 {
		return nil, ErrClientRootMissing
	}
	return &Workspace{clientRoot: trimmedRoot}, nil
}

// VirtualEnvironmentExists reports whether the directory exists.
func (workspace *Workspace) VirtualEnvironmentExists(virtualEnvironmentPath string) bool {
	trimmedPath := strings.TrimSpace(virtualEnvironmentPath)
	if len(trimmedPath) == 0 {
		return false
	}
	info, statError := os.Stat(trimmedPath)
	return statError == nil && info.IsDir()
}

// ProjectDescriptorPath returns the descriptor location for an org.
func (workspace *Workspace) ProjectDescriptorPath(orgSlug string) string {
	return filepath.Join(workspace.clientRoot, orgSlug, repositoryDirectoryNameConstant, projectDescriptorFileNameConstant)
}

// LoadProjectDescriptor reads and validates an org's project descriptor.
func (workspace *Workspace) LoadProjectDescriptor(orgSlug string) (ProjectDescriptor, error) {
	descriptorPath := workspace.ProjectDescriptorPath(orgSlug)

	contents, readError := os.ReadFile(descriptorPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return ProjectDescriptor{}, ProjectError{Kind: ProjectErrorKindMissing, Path: descriptorPath, Cause: readError}
		}
		return ProjectDescriptor{}, ProjectError{Kind: ProjectErrorKindUnreadable, Path: descriptorPath, Cause: readError}
	}

	var descriptor ProjectDescriptor
	if decodeError := yaml.Unmarshal(contents, &descriptor); decodeError != nil {
		return ProjectDescriptor{}, ProjectError{Kind: ProjectErrorKindInvalid, Path: descriptorPath, Cause: decodeError}
	}
	if len(strings.TrimSpace(descriptor.Profile)) == 0 {
		return ProjectDescriptor{}, ProjectError{Kind: ProjectErrorKindNoProfile, Path: descriptorPath}
	}

	descriptor.Profile = strings.TrimSpace(descriptor.Profile)
	descriptor.Path = descriptorPath
	return descriptor, nil
}
