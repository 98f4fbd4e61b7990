package dto

// SyncOutcome reports what one student's sync pass changed.
type SyncOutcome struct {
	StudentID        uint   `json:"student_id"`
	Handle           string `json:"cf_handle"`
	RatingChanged    bool   `json:"rating_changed"`
	ContestsReplaced bool   `json:"contests_replaced"`
	ProblemsReplaced bool   `json:"problems_replaced"`
	Notified         bool   `json:"notified"`
	Error            string `json:"error,omitempty"`
}

// SweepResult aggregates a full-sweep run over all students.
type SweepResult struct {
	RunID    string        `json:"run_id"`
	Total    int           `json:"total"`
	Failed   int           `json:"failed"`
	Notified int           `json:"notified"`
	Outcomes []SyncOutcome `json:"outcomes"`
}
