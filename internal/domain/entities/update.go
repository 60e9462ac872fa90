package entities

import (
	"fmt"
	"path"
	"strings"
)

// CommitType is the conventional-commit type assigned to an update.
type CommitType string

const (
	CommitTypeBuild CommitType = "build"
	CommitTypeCI    CommitType = "ci"
	CommitTypeDocs  CommitType = "docs"
)

// commitTypeOrder is the fixed priority used to pick a pull request type.
//
//nolint:gochecknoglobals // immutable lookup table
var commitTypeOrder = []CommitType{CommitTypeBuild, CommitTypeCI, CommitTypeDocs}

const workflowDir = ".github/workflows/"

// ParseCommitType maps a conventional-commit prefix to a known type.
func ParseCommitType(value string) (CommitType, bool) {
	for _, t := range commitTypeOrder {
		if string(t) == value {
			return t, true
		}
	}
	return "", false
}

// PullRequestType returns the type with the lowest index in the fixed order
// build < ci < docs. It returns build for an empty input.
func PullRequestType(types []CommitType) CommitType {
	best := len(commitTypeOrder)
	for _, t := range types {
		for i, candidate := range commitTypeOrder {
			if candidate == t && i < best {
				best = i
			}
		}
	}
	if best == len(commitTypeOrder) {
		return CommitTypeBuild
	}
	return commitTypeOrder[best]
}

// ClassifyPath derives the commit type of a file path.
func ClassifyPath(filePath string) CommitType {
	switch {
	case IsDocument(filePath):
		return CommitTypeDocs
	case IsWorkflow(filePath):
		return CommitTypeCI
	default:
		return CommitTypeBuild
	}
}

// IsDocument reports whether the path is a markdown or plain text file.
func IsDocument(filePath string) bool {
	ext := strings.ToLower(path.Ext(filePath))
	return ext == ".md" || ext == ".txt"
}

// IsWorkflow reports whether the path lives in the GitHub Actions directory.
func IsWorkflow(filePath string) bool {
	return strings.HasPrefix(filePath, workflowDir)
}

// UpdateSpec describes the upgrade of one dependency.
type UpdateSpec struct {
	Name    string
	Initial string // empty when unknown
	Target  string

	// URL and TargetURL are only set for module references.
	URL       string
	TargetURL string
}

// UpdateKind discriminates the two update variants.
type UpdateKind int

const (
	ModuleUpdate UpdateKind = iota
	RepoUpdate
)

func (k UpdateKind) String() string {
	switch k {
	case ModuleUpdate:
		return "module"
	case RepoUpdate:
		return "repo"
	default:
		return "unknown"
	}
}

// Update is the upgrade of one dependency reference inside one file.
// It is immutable once created.
type Update struct {
	Kind UpdateKind
	Path string
	Spec UpdateSpec
	Type CommitType

	// Marker is the annotation word of the scan that produced the update.
	Marker string
}

// NewModuleUpdate creates an update rewriting a module URL.
func NewModuleUpdate(filePath string, spec UpdateSpec, marker string) Update {
	return Update{
		Kind:   ModuleUpdate,
		Path:   filePath,
		Spec:   spec,
		Type:   ClassifyPath(filePath),
		Marker: marker,
	}
}

// NewRepoUpdate creates an update rewriting an annotated version.
func NewRepoUpdate(filePath string, spec UpdateSpec, marker string) Update {
	return Update{
		Kind:   RepoUpdate,
		Path:   filePath,
		Spec:   spec,
		Type:   ClassifyPath(filePath),
		Marker: marker,
	}
}

// Message is the conventional-commit message for this single update.
func (u Update) Message() string {
	return FormatCommitMessage(u.Type, u.Spec.Name, u.Spec.Initial, u.Spec.Target)
}

// Content applies the update to the given text and returns the result.
// Regions excluded with ignore markers are never rewritten.
func (u Update) Content(input string) string {
	marker := u.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	return RewriteOutsideIgnored(input, marker, u.rewrite)
}

func (u Update) rewrite(input string) string {
	switch u.Kind {
	case ModuleUpdate:
		if u.Spec.URL == "" || u.Spec.TargetURL == "" {
			return input
		}
		return ReplaceURL(input, u.Spec.URL, u.Spec.TargetURL)
	case RepoUpdate:
		return RewriteAnnotated(input, u.Marker, u.Spec.Name, u.Spec.Initial, u.Spec.Target)
	default:
		return input
	}
}

// FormatCommitMessage builds "<type>(deps): bump <name>[ from <initial>] to <target>".
func FormatCommitMessage(commitType CommitType, name, initial, target string) string {
	from := " "
	if initial != "" {
		from = fmt.Sprintf(" from %s ", initial)
	}
	return fmt.Sprintf("%s(deps): bump %s%sto %s", commitType, name, from, target)
}
