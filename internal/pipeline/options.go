package pipeline

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-engine/internal/domain"
)

// Option defaults and limits.
const (
	DefaultCount = 5
	MaxCount     = 50
)

// Options tune one generation request.
type Options struct {
	Count      int               `json:"count" validate:"gte=0,lte=50"`
	Difficulty domain.Difficulty `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Subjects   []string          `json:"subjects" validate:"omitempty,max=10,dive,max=100"`
	FocusAreas []string          `json:"focusAreas" validate:"omitempty,max=10,dive,max=200"`
}

var optionsValidator = validator.New()

// WithDefaults returns a copy of o with zero fields replaced by defaults.
// defaultCount <= 0 means DefaultCount.
func (o Options) WithDefaults(defaultCount int) Options {
	if defaultCount <= 0 {
		defaultCount = DefaultCount
	}
	if o.Count == 0 {
		o.Count = defaultCount
	}
	if o.Difficulty == "" {
		o.Difficulty = domain.DifficultyIntermediate
	}
	o.Subjects = nonEmpty(o.Subjects)
	o.FocusAreas = nonEmpty(o.FocusAreas)
	return o
}

// Validate checks o against the struct rules and maxCount.
func (o Options) Validate(maxCount int) error {
	if err := optionsValidator.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" "+fe.Tag())
			}
			return domain.NewValidationError(domain.CodeInvalidOptions, "invalid options: %s", strings.Join(fields, ", "))
		}
		return domain.NewValidationError(domain.CodeInvalidOptions, "invalid options: %v", err)
	}
	if o.Count < 1 {
		return domain.NewValidationError(domain.CodeInvalidOptions, "count must be at least 1")
	}
	if maxCount > 0 && o.Count > maxCount {
		return domain.NewValidationError(domain.CodeInvalidOptions, "count %d exceeds the maximum of %d", o.Count, maxCount)
	}
	return nil
}

// SubjectHint is the subject passed to the knowledge lookup.
func (o Options) SubjectHint(analysis *domain.ContentAnalysis) string {
	if len(o.Subjects) > 0 {
		return o.Subjects[0]
	}
	return analysis.SubjectArea
}
