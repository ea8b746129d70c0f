package constants

// ReviewStatus is the canonical review state for rows in interview_submission.
type ReviewStatus string

// Stable values (store these exact strings in DB).
const (
	ReviewStatusPending     ReviewStatus = "Pending"     // freshly submitted, awaiting reviewer
	ReviewStatusReviewed    ReviewStatus = "Reviewed"    // reviewer opened the report
	ReviewStatusShortlisted ReviewStatus = "Shortlisted" // candidate advanced
	ReviewStatusRejected    ReviewStatus = "Rejected"    // candidate declined
)

// AnswerStatus marks a question slot once its recording pipeline finished.
type AnswerStatus string

const (
	AnswerStatusAnswered AnswerStatus = "Answered"
)
