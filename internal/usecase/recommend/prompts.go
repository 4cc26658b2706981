package recommend

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/courserec/internal/domain"
)

const describePromptTemplate = `You will be given a request from a university student to provide quality course recommendations.
Generate a course description that would be most applicable to their request. In the course description, provide a list of topics as well as a
general description of the course. Limit the description to be less than 200 words.

Student Request:
%s`

const narrativePromptTemplate = `You are an expert academic advisor specializing in personalized course recommendations.
When evaluating matches between student profiles and courses, prioritize direct relevance and career trajectory fit.

Context: Student Profile (%s)
Course Options:
%s

REQUIREMENTS:
- Return exactly %d courses, ranked by relevance and fit
- Recommend ONLY courses listed in Course Options
- For each recommendation include:
  1. Course number
  2. Course name
  3. Two-sentence explanation focused on student's specific profile/goals
  4. Confidence level (High/Medium/Low)

FORMAT (Markdown):
1. **COURSEXXX: COURSE_TITLE**
Rationale: [Two clear sentences explaining fit]
Confidence: [Level]

2. [Next course...]

CONSTRAINTS:
- NO general academic advice
- NO mentions of prerequisites unless explicitly stated in course description
- NO suggestions outside provided course list
- NO mention of being an AI or advisor`

const explainPromptTemplate = `Explain in 2-3 sentences why the course "%s: %s"
is a good fit for a student interested in: "%s".

Course Description: %s

Focus on specific connections between the student's interests and the course content.`

func describePrompt(query string) string {
	return fmt.Sprintf(describePromptTemplate, query)
}

func narrativePrompt(query string, matches []domain.SimilarityMatch, count int) string {
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s\n%s (similarity %.2f)",
			m.Course.Code, m.Course.Title, m.Course.Description, m.Score)
	}
	return fmt.Sprintf(narrativePromptTemplate, query, b.String(), count)
}

func explainPrompt(course *domain.CourseRecord, query string) string {
	description := course.Description
	if description == "" {
		description = "No description available"
	}
	return fmt.Sprintf(explainPromptTemplate, course.Code, course.Title, query, description)
}
