package validate

import (
	"errors"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
)

// StatEntryRule: non-blank label, finite percentage confidence.
func StatEntryRule(e domain.StatEntry) error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Classification, validation.Required, validation.By(notBlank)),
		validation.Field(&e.Confidence, validation.By(finite), validation.Min(0.0), validation.Max(100.0)),
	)
}

// DocumentRecordRule checks a history row. List confidence is a percentage.
func DocumentRecordRule(d domain.DocumentRecord) error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required),
		validation.Field(&d.Filename, validation.Required, validation.By(notBlank)),
		validation.Field(&d.Classification, validation.Required, validation.By(notBlank)),
		validation.Field(&d.Confidence, validation.By(finite), validation.Min(0.0), validation.Max(100.0)),
	)
}

// UploadResponseRule checks the classify answer, where scores are fractions.
func UploadResponseRule(d domain.DocumentRecord) error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Classification, validation.Required, validation.By(notBlank)),
		validation.Field(&d.Confidence, validation.By(finite), validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&d.AllScores, validation.Each(validation.By(finite), validation.Min(0.0), validation.Max(1.0))),
	)
}

func CategoryRule(label string) error {
	return validation.Validate(label, validation.Required, validation.By(notBlank))
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be blank")
	}
	return nil
}

func finite(value interface{}) error {
	f, ok := value.(float64)
	if !ok {
		return errors.New("must be a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.New("must be a finite number")
	}
	return nil
}
