package entities

// DefaultBranchName is the working branch used when none is configured.
const DefaultBranchName = "pinbump"

// UpdateOptions holds the per-run options shared by every pipeline step.
type UpdateOptions struct {
	BaseBranch string // default branch when empty
	Branch     string
	Include    []string
	Exclude    []string
	Release    *UpdateSpec // coordinated-release override
	Labels     []string
	Privileged bool // the token may modify workflow files
	Marker     string
	Author     CommitAuthor
}

// WorkingBranch returns the configured branch or the default one.
func (o UpdateOptions) WorkingBranch() string {
	if o.Branch == "" {
		return DefaultBranchName
	}
	return o.Branch
}

// AnnotationMarker returns the configured marker or the default one.
func (o UpdateOptions) AnnotationMarker() string {
	if o.Marker == "" {
		return DefaultMarker
	}
	return o.Marker
}

// Committer returns the configured bot identity or the default one.
func (o UpdateOptions) Committer() CommitAuthor {
	if o.Author.Name == "" || o.Author.Email == "" {
		return DefaultAuthor()
	}
	return o.Author
}

// DefaultAuthor is the bot identity used for commits.
func DefaultAuthor() CommitAuthor {
	return CommitAuthor{
		Name:  "pinbump",
		Email: "pinbump@users.noreply.github.com",
	}
}
