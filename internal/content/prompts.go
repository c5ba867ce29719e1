package content

import (
	"fmt"
	"strings"

	"github.com/xiaot623/workforce/internal/domain"
)

// emailSystemPrompt steers the model toward short, plain internal emails.
const emailSystemPrompt = `You are a corporate email writer generating realistic internal business emails.
Write natural-sounding emails that an employee would send during their work day.
Keep emails concise (2-5 sentences for the body).
Include appropriate greetings and sign-offs.
Do not include any markers, tags, or metadata - just the email content.`

var departmentTopics = map[domain.Department]string{
	domain.DepartmentEngineering: "about a code review, sprint update, or technical decision",
	domain.DepartmentSales:       "about a client meeting, deal progress, or quarterly targets",
	domain.DepartmentHR:          "about a policy update, onboarding, or team event",
	domain.DepartmentFinance:     "about budget review, expense report, or financial planning",
	domain.DepartmentOperations:  "about process improvement, vendor coordination, or logistics",
	domain.DepartmentExecutive:   "about strategic initiative, board preparation, or organizational update",
}

// buildEmailPrompt builds the user prompt for one generated email.
func buildEmailPrompt(department domain.Department, workerName, directive string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short internal business email from %s in the %s department.", workerName, department)

	if directive != "" {
		fmt.Fprintf(&b, "\n\nAdditional context: %s", directive)
	} else {
		topic, ok := departmentTopics[department]
		if !ok {
			topic = "about a work-related topic"
		}
		fmt.Fprintf(&b, "\nThe email should be %s.", topic)
	}

	b.WriteString("\n\nReturn ONLY the email content (subject line on first line, then body). No other text.")
	return b.String()
}
