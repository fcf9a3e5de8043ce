package renewip

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Configuration holds the operator's answers to the setup questions.
// It is read once per run and passed by value; nothing modifies it afterwards.
type Configuration struct {
	PrintAddress bool   `mapstructure:"print_ip" json:"print_ip"`
	SaveAddress  bool   `mapstructure:"save_ip" json:"save_ip"`
	ContractID   string `mapstructure:"contract_id" json:"contract_id" validate:"required,excludesall=/?#"`
	DeviceID     string `mapstructure:"device_id" json:"device_id" validate:"required,excludesall=/?#"`
	Cookie       string `mapstructure:"cookie" json:"cookie" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every missing or malformed field.
func (c Configuration) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("%s is required", fe.Field()))
		default:
			errs = append(errs, fmt.Errorf("%s has an invalid value", fe.Field()))
		}
	}
	return errors.Join(errs...)
}

// Redacted returns a copy that is safe to log.
func (c Configuration) Redacted() Configuration {
	if c.Cookie != "" {
		c.Cookie = "[redacted]"
	}
	return c
}
