package service

import (
	"fmt"
	"sort"

	"github.com/noah-isme/spms-go-api/internal/models"
	"github.com/noah-isme/spms-go-api/pkg/codeforces"
)

// ProblemKey builds the canonical problem identifier from a contest id and
// in-contest index, e.g. "1500-A".
func ProblemKey(contestID int, index string) string {
	return fmt.Sprintf("%d-%s", contestID, index)
}

// ReduceSubmissions collapses a raw submission stream into one ProblemRecord
// per distinct problem using first-accepted-wins semantics: the record keeps
// the earliest accepted timestamp, with the lower submission id breaking
// exact-timestamp ties. Non-accepted submissions are ignored. The function is
// pure; re-running it over the same input yields the same output.
func ReduceSubmissions(submissions []codeforces.Submission) []models.ProblemRecord {
	type winner struct {
		submission codeforces.Submission
		key        string
	}

	winners := make(map[string]winner, len(submissions))
	for _, submission := range submissions {
		if !submission.Accepted() {
			continue
		}

		key := ProblemKey(submission.ContestID, submission.Index)
		current, seen := winners[key]
		if !seen || earlierSubmission(submission, current.submission) {
			winners[key] = winner{submission: submission, key: key}
		}
	}

	records := make([]models.ProblemRecord, 0, len(winners))
	for _, w := range winners {
		records = append(records, models.ProblemRecord{
			ProblemID:   w.key,
			ProblemName: w.submission.ProblemName,
			Rating:      w.submission.Rating,
			DateSolved:  w.submission.CreatedAt,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].DateSolved.Equal(records[j].DateSolved) {
			return records[i].DateSolved.Before(records[j].DateSolved)
		}
		return records[i].ProblemID < records[j].ProblemID
	})

	return records
}

func earlierSubmission(candidate, current codeforces.Submission) bool {
	if candidate.CreatedAt.Before(current.CreatedAt) {
		return true
	}
	if candidate.CreatedAt.Equal(current.CreatedAt) {
		return candidate.ID < current.ID
	}
	return false
}
