package lfo_test

import (
	"fmt"

	"github.com/cwbudde/stonemistress/dsp/lfo"
)

func ExampleOscillator_NextBlock() {
	osc, err := lfo.New(lfo.WithRateHz(1024), lfo.WithPhaseOffset(0.5))
	if err != nil {
		fmt.Println("error")
		return
	}
	if err := osc.Prepare(4096); err != nil {
		fmt.Println("error")
		return
	}

	rows := [][]float64{make([]float64, 4), make([]float64, 4)}
	osc.NextBlock(rows, 4)

	fmt.Println(rows[lfo.ReferenceRow])
	fmt.Println(rows[lfo.OffsetRow])

	// Output:
	// [1 0 -1 0]
	// [-1 0 1 0]
}
