package entities

const PullRequestStateOpen = "open"

// PullRequest is the subset of a GitHub pull request used by the engine.
type PullRequest struct {
	Number  int
	Title   string
	URL     string
	State   string
	Base    string
	Head    string
	HeadSHA string
	Author  string
	Labels  []string
}

// HasLabel reports whether the pull request carries the label.
func (p PullRequest) HasLabel(label string) bool {
	for _, l := range p.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// PullRequestInput holds the fields needed to open a pull request.
type PullRequestInput struct {
	Title string
	Head  string
	Base  string
	Body  string
}
