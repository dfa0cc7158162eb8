package utils

import (
	"math"

	"rankbot-api/packages/core/models"
)

const (
	lossBase  = 1.0065
	lossRange = 12.0
	lossFloor = 4.0
)

// Standing is a participant's rating going into a match.
type Standing struct {
	UserID string
	Name   string
	Points int
}

// PointLoss is the number of points a loser rated diff above the table
// average gives up. It is always within [4, 16].
func PointLoss(diff float64) int {
	loss := lossRange/(1+math.Pow(lossBase, -diff)) + lossFloor
	return int(math.RoundToEven(loss))
}

// ComputeDelta scores a finished match. Each loser is compared against the
// average of everyone else at the table; the winner collects the sum of all
// losses so the result is zero-sum. Losers keep their input order and the
// winner comes last.
func ComputeDelta(winner Standing, losers []Standing) models.Delta {
	delta := make(models.Delta, 0, len(losers)+1)
	if len(losers) == 0 {
		return append(delta, models.DeltaEntry{UserID: winner.UserID, Player: winner.Name})
	}

	total := winner.Points
	for _, l := range losers {
		total += l.Points
	}
	others := float64(len(losers))

	gains := 0
	for _, l := range losers {
		avg := float64(total-l.Points) / others
		loss := PointLoss(float64(l.Points) - avg)
		gains += loss
		delta = append(delta, models.DeltaEntry{UserID: l.UserID, Player: l.Name, Change: -loss})
	}

	return append(delta, models.DeltaEntry{UserID: winner.UserID, Player: winner.Name, Change: gains})
}
