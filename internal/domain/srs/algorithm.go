package srs

import (
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
)

// calculateNewStage advances one stage on a correct answer, capped at the
// last stage of the interval table, and drops to stage 0 on a miss.
func calculateNewStage(currentStage int, correct bool, params *Params) int {
	if !correct {
		return 0
	}

	stage := currentStage + 1
	if stage > params.MaxStage() {
		stage = params.MaxStage()
	}
	if stage < 0 {
		stage = 0
	}
	return stage
}

// calculateNewProficiency applies the gain or penalty and clamps the result
// to [0, MaxProficiency].
func calculateNewProficiency(current int, correct bool, params *Params) int {
	next := current - params.IncorrectPenalty
	if correct {
		next = current + params.CorrectGain
	}

	if next < 0 {
		return 0
	}
	if next > params.MaxProficiency {
		return params.MaxProficiency
	}
	return next
}

// calculateNextReviewTime schedules the next review. A miss is retried after
// RetryDelay; a correct answer waits the interval of the new stage.
func calculateNextReviewTime(stage int, correct bool, now time.Time, params *Params) time.Time {
	if !correct {
		return now.Add(params.RetryDelay)
	}
	return now.Add(time.Duration(params.IntervalDays[stage]) * 24 * time.Hour)
}

// calculateNextProgress returns an updated copy of progress; the input is
// never modified.
func calculateNextProgress(
	progress *domain.QuestionProgress,
	correct bool,
	now time.Time,
	params *Params,
) *domain.QuestionProgress {
	next := *progress

	next.Attempts++
	if !correct {
		next.Errors++
	}
	next.Proficiency = calculateNewProficiency(progress.Proficiency, correct, params)
	next.Stage = calculateNewStage(progress.Stage, correct, params)
	next.NextReviewAt = calculateNextReviewTime(next.Stage, correct, now, params)
	next.LastReviewedAt = now

	return &next
}
