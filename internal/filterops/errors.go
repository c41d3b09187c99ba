// Package filterops provides the query operator modules: comparison,
// logical, element, evaluation, array and bitwise operators.
//
// Each module is a filter.Registry; merge the ones you need with
// compiler.Merge.
package filterops

import (
	"errors"
	"fmt"

	"github.com/jacoelho/docq/internal/value"
)

// ErrInvalidOperand is returned when an operator receives an operand of the
// wrong shape.
var ErrInvalidOperand = errors.New("invalid operand")

func operandError(operator, expected string, got any) error {
	return fmt.Errorf("%w: %s: expected %s, got %s", ErrInvalidOperand, operator, expected, value.Kind(got))
}
