package regression_test

import (
	"context"
	"fmt"
	"math"

	"github.com/arloliu/emreg/dataset"
	"github.com/arloliu/emreg/format"
	"github.com/arloliu/emreg/regression"
)

func ExampleREM() {
	schema, _ := dataset.RealSchema("x1", "x2", "z")
	nan := math.NaN()

	// z = 1 + 2·x1 - x2
	sample, _ := dataset.FromFloats(schema, [][]float64{
		{0, 0, 1},
		{1, 0, 3},
		{0, 1, 0},
		{1, 1, 2},
		{2, 1, 4},
		{2, 3, 2},
		{3, nan, nan},
	})

	rem, err := regression.New(
		regression.WithIndices("1, 2, 3"),
		regression.WithThreshold(1e-9, format.ThresholdAbsolute),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	param, err := rem.Learn(context.Background(), sample)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("alpha: %.2f %.2f %.2f\n", param.Alpha[0], param.Alpha[1], param.Alpha[2])

	profile, _ := dataset.ProfileOf(schema, 4, 2, nan)
	z, ok := rem.Execute(profile)
	fmt.Printf("prediction: %.2f %v\n", z, ok)

	incomplete, _ := dataset.ProfileOf(schema, 4, nan, nan)
	_, ok = rem.Execute(incomplete)
	fmt.Println("incomplete:", ok)

	// Output:
	// alpha: 1.00 2.00 -1.00
	// prediction: 7.00 true
	// incomplete: false
}
