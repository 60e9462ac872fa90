package entities

import (
	"fmt"
	"strings"
)

// Repository identifies a GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

// ParseRepository parses an "owner/name" string.
func ParseRepository(fullName string) (Repository, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(fullName), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, fullName)
	}
	return Repository{Owner: owner, Name: name}, nil
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// TreeEntry is one object of a recursive git tree.
type TreeEntry struct {
	Path string
	SHA  string
	Type string
}

// Blob is the full content of one file to be written in a commit.
type Blob struct {
	Path    string
	Content string
}

// Branch is a branch name and the sha it points to.
type Branch struct {
	Name string
	SHA  string
}

// Commit is a created or compared commit.
type Commit struct {
	SHA     string
	Message string
}

// CommitAuthor is the identity used for commits.
type CommitAuthor struct {
	Name  string
	Email string
}
