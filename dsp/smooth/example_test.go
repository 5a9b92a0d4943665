package smooth_test

import (
	"fmt"

	"github.com/cwbudde/stonemistress/dsp/smooth"
)

func ExampleLinear() {
	depth := smooth.NewLinear(0)
	depth.Reset(1000, 0.004)
	depth.SetTarget(1)

	for range 4 {
		fmt.Printf("%.2f ", depth.Next())
	}
	fmt.Println()

	// Output:
	// 0.25 0.50 0.75 1.00
}
