package types_test

import (
	"errors"
	"fmt"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// Example demonstrates basic error creation and handling
func Example_basicError() {
	err := types.NewError(types.VALIDATION_FAILED, "invalid relationship type: LIKES")
	fmt.Println(err.Error())
	// Output: [VALIDATION_FAILED] invalid relationship type: LIKES
}

// Example demonstrates matching an error kind through a wrap chain
func Example_errorMatching() {
	cause := errors.New("endpoint not found")
	err := fmt.Errorf("relationship 1->9: %w",
		types.NewGraphBuildError("Clause", "9", "failed to create relationship", cause))

	fmt.Printf("graph build: %v\n", errors.Is(err, types.ErrGraphBuild))
	fmt.Printf("validation: %v\n", errors.Is(err, types.ErrValidation))
	// Output:
	// graph build: true
	// validation: false
}
