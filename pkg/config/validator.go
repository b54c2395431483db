package config

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var dagNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// airflowOnlyPresets are schedule presets Airflow accepts that cron descriptors do not cover
var airflowOnlyPresets = map[string]bool{"@once": true, "@quarterly": true}

// RegisterCustomValidators registers the dag_name and schedule_interval rules
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("dag_name", validateDAGName); err != nil {
		return err
	}
	return v.RegisterValidation("schedule_interval", validateScheduleInterval)
}

// validateDAGName accepts names usable as a Python module
func validateDAGName(fl validator.FieldLevel) bool {
	return dagNamePattern.MatchString(fl.Field().String())
}

// validateScheduleInterval accepts an Airflow preset or a standard five field cron expression
func validateScheduleInterval(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if airflowOnlyPresets[value] {
		return true
	}
	if strings.HasPrefix(value, "@every") {
		return false
	}
	_, err := cron.ParseStandard(value)
	return err == nil
}
