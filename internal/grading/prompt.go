package grading

import (
	"bytes"
	"text/template"
)

const gradeSystemPrompt = `You are an experienced CEFR English examiner. Grade the learner's answer to the task below.

Instructions:
- Score from 0 to 5 using the rubric when one is given, otherwise general CEFR descriptors for the stated level.
- The answer may be a speech transcript; do not penalize missing punctuation in that case.
- Address the learner directly in the feedback and name one concrete improvement.
- Keep feedback to two sentences.`

var gradeUserTemplate = template.Must(template.New("grade").Parse(`Level: {{.Band}}
Mode: {{.Mode}}
Task: {{.Question}}
{{if .Rubric}}Rubric: {{.Rubric}}
{{end}}
Learner's answer:
{{.Text}}`))

func buildGradeMessage(req *Request) (string, error) {
	var buf bytes.Buffer
	if err := gradeUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
