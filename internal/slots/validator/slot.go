package validator

import (
	"errors"
	"fmt"
	"strings"

	venuevalidator "stagedoor/internal/venues/validator"
	"stagedoor/pkg/logger"
	"stagedoor/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type SlotValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewSlotValidator(log *logger.Logger) *SlotValidator {
	v := validator.New()

	if err := v.RegisterValidation("calendar_date", venuevalidator.ValidateCalendarDate); err != nil {
		log.Fatal("Failed to register 'calendar_date' validator", "error", err)
	}
	if err := v.RegisterValidation("time_of_day", venuevalidator.ValidateTimeOfDay); err != nil {
		log.Fatal("Failed to register 'time_of_day' validator", "error", err)
	}

	log.Info("Slot validator initialized successfully")

	return &SlotValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks a new slot request. The requested range must normalize
// onto the absolute timeline; zero-length ranges fail here, not at overlap
// time.
func (v *SlotValidator) Validate(req *model.SlotRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if _, err := req.RequestedRange.Span(); err != nil {
		return ValidationErrors{
			ValidationError{Field: "RequestedRange", Message: err.Error()},
		}
	}

	return nil
}

// ValidateTransition checks the wire payload plus the per-action payload
// requirements. State legality is the service's concern.
func (v *SlotValidator) ValidateTransition(t *model.SlotTransition) error {
	if err := v.validate.Struct(t); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	switch t.Action {
	case model.SlotActionReject, model.SlotActionRequestChanges:
		if strings.TrimSpace(t.Notes) == "" {
			return ValidationErrors{
				ValidationError{Field: "Notes", Message: fmt.Sprintf("notes are required for %s", t.Action)},
			}
		}
	case model.SlotActionCounter:
		if t.AlternativeRange == nil {
			return ValidationErrors{
				ValidationError{Field: "AlternativeRange", Message: "an alternative range is required for counter"},
			}
		}
		if _, err := t.AlternativeRange.Span(); err != nil {
			return ValidationErrors{
				ValidationError{Field: "AlternativeRange", Message: err.Error()},
			}
		}
	case model.SlotActionResubmit:
		if t.RequestedRange != nil {
			if _, err := t.RequestedRange.Span(); err != nil {
				return ValidationErrors{
					ValidationError{Field: "RequestedRange", Message: err.Error()},
				}
			}
		}
	}

	return nil
}

func (v *SlotValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "calendar_date":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "time_of_day":
			message = fmt.Sprintf("%s must be a time in HH:MM format", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
