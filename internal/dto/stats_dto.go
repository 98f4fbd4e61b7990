package dto

import (
	"time"

	"github.com/noah-isme/spms-go-api/internal/models"
)

// HardestProblem identifies the highest-rated solve inside a stats window.
type HardestProblem struct {
	ProblemID   string `json:"problem_id"`
	ProblemName string `json:"problem_name"`
	Rating      *int   `json:"rating"`
}

// ProblemStatsResponse aggregates solving activity over a lookback window.
// SolvedByRating and DailySolvedCounts are sparse: only ratings and dates
// with at least one solve appear as keys.
type ProblemStatsResponse struct {
	TotalSolved       int             `json:"total_solved"`
	AverageRating     float64         `json:"average_rating"`
	HardestSolved     *HardestProblem `json:"hardest_solved"`
	ProblemsPerDay    float64         `json:"problems_per_day"`
	SolvedByRating    map[int]int     `json:"solved_by_rating"`
	DailySolvedCounts map[string]int  `json:"daily_solved_counts"`
}

// ContestRecordResponse is the API shape of one contest appearance.
type ContestRecordResponse struct {
	ContestID    int       `json:"contest_id"`
	ContestName  string    `json:"contest_name"`
	Rank         int       `json:"rank"`
	RatingChange int       `json:"rating_change"`
	SolvedCount  *int      `json:"solved_count"`
	NewRating    int       `json:"new_rating"`
	Date         time.Time `json:"date"`
}

// NewContestRecordResponseSlice maps contest record models.
func NewContestRecordResponseSlice(records []models.ContestRecord) []ContestRecordResponse {
	responses := make([]ContestRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, ContestRecordResponse{
			ContestID:    record.ContestID,
			ContestName:  record.ContestName,
			Rank:         record.Rank,
			RatingChange: record.RatingChange,
			SolvedCount:  record.SolvedCount,
			NewRating:    record.NewRating,
			Date:         record.Date,
		})
	}
	return responses
}
