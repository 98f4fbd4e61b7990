package codeforces

import "time"

// Rating holds a user's current and best rating. Unrated accounts leave both
// fields nil.
type Rating struct {
	Current *int
	Max     *int
}

// ContestResult is one rated contest appearance mapped into canonical form.
// RatingChange is derived at this layer; the upstream endpoint only carries
// old and new rating.
type ContestResult struct {
	ContestID    int
	ContestName  string
	Rank         int
	RatingChange int
	NewRating    int
	Date         time.Time
}

// Submission is a single raw submission event, accepted or not. Chronological
// order is not guaranteed by the upstream endpoint.
type Submission struct {
	ID          int64
	ContestID   int
	Index       string
	ProblemName string
	Rating      *int
	Verdict     string
	CreatedAt   time.Time
}

// Accepted reports whether the submission passed all tests.
func (s Submission) Accepted() bool {
	return s.Verdict == VerdictOK
}

// VerdictOK is the upstream verdict for an accepted submission.
const VerdictOK = "OK"

type userInfoDTO struct {
	Handle    string `json:"handle"`
	Rating    *int   `json:"rating"`
	MaxRating *int   `json:"maxRating"`
}

type ratingChangeDTO struct {
	ContestID               int    `json:"contestId"`
	ContestName             string `json:"contestName"`
	Rank                    int    `json:"rank"`
	OldRating               int    `json:"oldRating"`
	NewRating               int    `json:"newRating"`
	RatingUpdateTimeSeconds int64  `json:"ratingUpdateTimeSeconds"`
}

type submissionDTO struct {
	ID                  int64  `json:"id"`
	CreationTimeSeconds int64  `json:"creationTimeSeconds"`
	Verdict             string `json:"verdict"`
	Problem             struct {
		ContestID int    `json:"contestId"`
		Index     string `json:"index"`
		Name      string `json:"name"`
		Rating    *int   `json:"rating"`
	} `json:"problem"`
}
