package srs

// Default scheduling constants.
const (
	DefaultMinEaseFactor      = 1.3
	DefaultCorrectEaseDelta   = 0.1
	DefaultIncorrectEaseDelta = -0.2
	DefaultFirstInterval      = 1
	DefaultSecondInterval     = 6
	DefaultLapseInterval      = 1
)

// Params defines all configurable parameters for the scheduling algorithm
type Params struct {
	// Floor applied to the ease factor on every update
	MinEaseFactor float64

	// Ease factor adjustments per outcome
	CorrectEaseDelta   float64
	IncorrectEaseDelta float64

	// Fixed intervals (days) for the first two successful repetitions
	FirstInterval  int
	SecondInterval int

	// Interval (days) after an incorrect answer
	LapseInterval int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	MinEaseFactor      float64
	CorrectEaseDelta   float64
	IncorrectEaseDelta float64
	FirstInterval      int
	SecondInterval     int
	LapseInterval      int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:      DefaultMinEaseFactor,
		CorrectEaseDelta:   DefaultCorrectEaseDelta,
		IncorrectEaseDelta: DefaultIncorrectEaseDelta,
		FirstInterval:      DefaultFirstInterval,
		SecondInterval:     DefaultSecondInterval,
		LapseInterval:      DefaultLapseInterval,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	// Cards below 1.3 ease fail validation, and a wrong answer must never
	// raise the ease.
	if config.MinEaseFactor > DefaultMinEaseFactor {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.CorrectEaseDelta > 0 {
		params.CorrectEaseDelta = config.CorrectEaseDelta
	}
	if config.IncorrectEaseDelta < 0 {
		params.IncorrectEaseDelta = config.IncorrectEaseDelta
	}

	// Intervals below one day would break the scheduling invariant
	if config.FirstInterval >= 1 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval >= 1 {
		params.SecondInterval = config.SecondInterval
	}
	if config.LapseInterval >= 1 {
		params.LapseInterval = config.LapseInterval
	}

	return params
}
