package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
)

// storeError makes sure err carries a sentinel. Repositories already
// classify driver errors; failures around them (begin, commit) do not.
func storeError(err error) error {
	for _, sentinel := range []error{common.ErrorStore, common.ErrorNotFound, common.ErrorConflict, common.ErrorValidation} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", common.ErrorStore, err)
}
