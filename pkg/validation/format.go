// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/cashflow-forecast/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateHorizon checks that days is one of the allowed projection lengths.
func ValidateHorizon(days int) error {
	for _, allowed := range constants.AllowedHorizons {
		if days == allowed {
			return nil
		}
	}
	return fmt.Errorf("projection horizon must be one of %v days, got %d", constants.AllowedHorizons, days)
}
