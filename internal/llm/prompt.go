package llm

import (
	"fmt"
	"strings"
)

// BuildQuestionPrompt composes the question-generation instruction. The model
// sees the resume as an attached inline image; the prompt only carries the job
// context and the output contract.
func BuildQuestionPrompt(req QuestionRequest) string {
	parts := []string{
		fmt.Sprintf("You are an AI interviewer. Your task is to generate %d diverse interview questions for a candidate applying for the %q role.", req.Count, req.JobTitle),
		fmt.Sprintf("The job description is: %q", req.JobDescription),
		fmt.Sprintf("The candidate's stated experience is: %s.", req.Experience),
		"Review the attached resume image to understand the candidate's background, skills, and experience.",
		fmt.Sprintf("Generate %d interview questions that are relevant to the job and the candidate's resume.", req.Count),
		"Instructions:",
		fmt.Sprintf("1. Provide EXACTLY %d questions.", req.Count),
		"2. Return ONLY JSON that matches the provided JSON Schema: an object with a single \"questions\" array of plain question strings.",
		"3. DO NOT include numbering (e.g., 1., 2., - ), bullet points, markdown, or any introductory/concluding text inside the questions.",
	}
	return strings.Join(parts, "\n")
}

// BuildFeedbackPrompt composes the evaluation instruction, interleaving each
// question with its transcribed answer in order.
func BuildFeedbackPrompt(req FeedbackRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI hiring assistant evaluating a candidate's interview performance for the %q role.\n", req.JobTitle)
	fmt.Fprintf(&b, "Job Description: %q\n", req.JobDescription)
	fmt.Fprintf(&b, "Candidate Stated Experience: %s\n", req.Experience)
	b.WriteString("Candidate Resume: [Attached Image]\n\n")
	b.WriteString("Interview Questions & Answers:\n---\n")

	for i, q := range req.Questions {
		transcript := "(Transcription Unavailable)"
		if i < len(req.Transcripts) && strings.TrimSpace(req.Transcripts[i]) != "" {
			transcript = req.Transcripts[i]
		}
		fmt.Fprintf(&b, "Question %d: %s\nAnswer %d Transcription: %s\n---\n", i+1, q, i+1, transcript)
	}

	b.WriteString(`
---
Evaluation Instructions:
Analyze the provided information based on the job description and candidate's resume and transcribed answers.
Provide a structured evaluation covering:
1. **Resume Analysis:** Evaluate how well the candidate's background/skills from the resume align with the job requirements.
2. **Answer Quality:** Analyze the quality of the transcribed answers for clarity, relevance, depth, and communication skills.
3. **Overall Evaluation:** Provide a concise summary.

Finally, provide numerical scores in the specific format "[Score]/100". Ensure scores are integers between 0 and 100.
* **Resume Score:** Assess score based *only* on the resume's relevance.
* **Q&A Score:** Assess score based *only* on the answers.
* **Overall Score:** Weighted score (Resume ~45%, Q&A ~55%).

Output Format (Use Markdown Headings EXACTLY as listed):
**Resume Analysis:**
[Analysis]

**Answer Quality:**
[Analysis]

**Overall Evaluation:**
[Summary]

**Scores:**
Resume Score: [Score]/100
Q&A Score: [Score]/100
Overall Score: [Score]/100`)
	return b.String()
}
