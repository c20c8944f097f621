package game

import (
	"fmt"
	"time"
)

// MoveRecord is one entry of a stored move history. The engine does not
// produce or persist these; it only summarizes lists handed to it.
type MoveRecord struct {
	Player     Player
	Position   int
	MoveNumber int
	Timestamp  time.Time
}

// HistorySummary aggregates a move history.
type HistorySummary struct {
	TotalMoves  int
	PlayerMoves int
	AIMoves     int
	GameFlow    []string
}

// AnalyzeHistory folds an ordered move history into per-player counts
// and a human-readable trace.
func AnalyzeHistory(moves []MoveRecord) HistorySummary {
	summary := HistorySummary{
		TotalMoves: len(moves),
		GameFlow:   make([]string, 0, len(moves)),
	}
	for _, m := range moves {
		side := "user"
		if m.Player == AIPlayer {
			side = "ai"
			summary.AIMoves++
		} else {
			summary.PlayerMoves++
		}
		summary.GameFlow = append(summary.GameFlow, fmt.Sprintf(
			"move %d: %s played cell %d (row %d, col %d)",
			m.MoveNumber, side, m.Position, m.Position/3, m.Position%3))
	}
	return summary
}
