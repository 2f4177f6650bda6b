// Package main - test-runner
// Executable to run the headless long-run validation suite.
package main

import (
	"fmt"
	"os"

	"github.com/skyrisegames/skytower/server/test"
)

func main() {
	fmt.Println("SKYTOWER - LONG RUN VALIDATION SUITE")
	fmt.Println("====================================")

	fmt.Println("\nSimulating 30 days of tower time at ultra speed...")
	longRun := test.NewLongRunTest()
	longRun.RunTest()

	results := longRun.GetResults()
	passed := 0
	failed := 0

	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n====================================")
	fmt.Println("SUMMARY")
	fmt.Println("====================================")
	fmt.Printf("   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)

	if failed > 0 {
		fmt.Println("\nThe simulation needs recalibration")
		os.Exit(1)
	}
	fmt.Println("\nThe tower is ready for deployment")
	os.Exit(0)
}
