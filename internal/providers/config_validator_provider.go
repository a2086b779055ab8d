package providers

import (
	"fmt"
	"github.com/gookit/validate"
	"leadsync/internal/structures"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid configuration: %s", v.Errors.One())
	}

	if cv.conf.Lock.Backend == "postgres" && cv.conf.Lock.DSN == "" {
		return fmt.Errorf("invalid configuration: lock.dsn is required for the postgres lock backend")
	}
	if cv.conf.Validation.MaxAttempts < 0 {
		return fmt.Errorf("invalid configuration: validation.maxAttempts must be positive")
	}
	if cv.conf.Validation.BatchThreshold < 0 {
		return fmt.Errorf("invalid configuration: validation.batchThreshold must be positive")
	}
	for name, table := range cv.conf.Sheets.Tables {
		for field, idx := range table.Columns {
			if idx < 0 {
				return fmt.Errorf("invalid configuration: sheets.tables.%s.columns.%s must not be negative", name, field)
			}
		}
	}
	return nil
}
