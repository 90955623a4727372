package modal

type IssueType string

const (
	IssueError   IssueType = "error"
	IssueWarning IssueType = "warning"
	IssueNotice  IssueType = "notice"
)

type AuditIssue struct {
	Code     string    `json:"code"`
	Type     IssueType `json:"type"`
	TypeCode int       `json:"typeCode"`
	Message  string    `json:"message"`
	Context  string    `json:"context,omitempty"`
	Selector string    `json:"selector,omitempty"`
	Runner   string    `json:"runner,omitempty"`
}

// AuditResult is the raw finding set for one page. Zero issues is a valid result.
type AuditResult struct {
	DocumentTitle string       `json:"documentTitle"`
	PageURL       string       `json:"pageUrl"`
	Issues        []AuditIssue `json:"issues"`
}

// Counts tallies issues by type.
func (r AuditResult) Counts() map[IssueType]int {
	counts := map[IssueType]int{IssueError: 0, IssueWarning: 0, IssueNotice: 0}
	for _, issue := range r.Issues {
		counts[issue.Type]++
	}
	return counts
}
