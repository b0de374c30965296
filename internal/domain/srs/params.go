package srs

import (
	"errors"
	"time"
)

// Errors returned when Params are inconsistent.
var (
	ErrEmptyIntervalTable    = errors.New("interval table cannot be empty")
	ErrInvalidIntervalTable  = errors.New("interval table must be non-negative and non-decreasing")
	ErrInvalidProficiencyCap = errors.New("max proficiency must be positive")
	ErrInvalidRetryDelay     = errors.New("retry delay must be positive")
)

// Params defines every tunable of the review schedule.
type Params struct {
	// IntervalDays maps stage to days until the next review. Its length
	// defines the number of stages.
	IntervalDays []int

	// Proficiency adjustments
	CorrectGain      int
	IncorrectPenalty int
	MaxProficiency   int

	// RetryDelay is the wait before a missed question becomes due again.
	RetryDelay time.Duration
}

// ParamsConfig allows overriding the defaults. Zero values keep the default.
type ParamsConfig struct {
	IntervalDays     []int
	CorrectGain      int
	IncorrectPenalty int
	MaxProficiency   int
	RetryDelay       time.Duration
}

// NewDefaultParams returns the standard schedule: six stages with intervals
// of 0, 1, 3, 7, 15 and 30 days, +15/-10 proficiency and a 12 hour retry.
func NewDefaultParams() *Params {
	return &Params{
		IntervalDays:     []int{0, 1, 3, 7, 15, 30},
		CorrectGain:      15,
		IncorrectPenalty: 10,
		MaxProficiency:   100,
		RetryDelay:       12 * time.Hour,
	}
}

// NewParams creates Params from config, falling back to defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if len(config.IntervalDays) > 0 {
		params.IntervalDays = append([]int(nil), config.IntervalDays...)
	}
	if config.CorrectGain > 0 {
		params.CorrectGain = config.CorrectGain
	}
	if config.IncorrectPenalty > 0 {
		params.IncorrectPenalty = config.IncorrectPenalty
	}
	if config.MaxProficiency > 0 {
		params.MaxProficiency = config.MaxProficiency
	}
	if config.RetryDelay > 0 {
		params.RetryDelay = config.RetryDelay
	}

	return params
}

// MaxStage is the highest reachable stage.
func (p *Params) MaxStage() int {
	return len(p.IntervalDays) - 1
}

// Validate checks the parameters for internal consistency.
func (p *Params) Validate() error {
	if len(p.IntervalDays) == 0 {
		return ErrEmptyIntervalTable
	}
	for i, days := range p.IntervalDays {
		if days < 0 || (i > 0 && days < p.IntervalDays[i-1]) {
			return ErrInvalidIntervalTable
		}
	}
	if p.MaxProficiency <= 0 {
		return ErrInvalidProficiencyCap
	}
	if p.RetryDelay <= 0 {
		return ErrInvalidRetryDelay
	}
	return nil
}
