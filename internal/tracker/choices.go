package tracker

// Accepted values for the enumerated entity fields. Optional fields
// additionally accept the empty string.
var (
	ProjectTypes    = []string{"BE", "FE", "IOS", "AND"}
	IssueStates     = []string{"TO DO", "In Progress", "Finished"}
	IssuePriorities = []string{"LOW", "MEDIUM", "HIGH"}
	IssueLabels     = []string{"BUG", "FEATURE", "TASK"}
)

// DefaultIssueState applies when an issue is created without a state.
const DefaultIssueState = "TO DO"

func validChoice(value string, choices []string) bool {
	for _, c := range choices {
		if value == c {
			return true
		}
	}
	return false
}

// validOptionalChoice accepts the empty string or any listed choice.
func validOptionalChoice(value string, choices []string) bool {
	return value == "" || validChoice(value, choices)
}
