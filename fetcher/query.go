package fetcher

import "time"

const latestIssuesQuery = `
query getIssues($owner: String!, $repo: String!, $count: Int!) {
  repository(owner: $owner, name: $repo) {
    issues(first: $count, orderBy: {field: CREATED_AT, direction: DESC},
      filterBy: {createdBy: $owner, states: OPEN}) {
      nodes {
        title
        body
        createdAt
        url
        labels(first: 10) {
          nodes {
            name
          }
        }
      }
    }
  }
}
`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type latestIssuesResponse struct {
	Data   *latestIssuesData `json:"data"`
	Errors []graphQLError    `json:"errors"`
}

// Every level is a pointer so a missing level can be told apart from an empty one.
type latestIssuesData struct {
	Repository *struct {
		Issues *struct {
			Nodes []issueNode `json:"nodes"`
		} `json:"issues"`
	} `json:"repository"`
}

type issueNode struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
	Labels    *struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
}

// nodes returns the issue nodes, or false when the nested structure is incomplete.
func (d *latestIssuesData) nodes() ([]issueNode, bool) {
	if d == nil || d.Repository == nil || d.Repository.Issues == nil || d.Repository.Issues.Nodes == nil {
		return nil, false
	}
	return d.Repository.Issues.Nodes, true
}
