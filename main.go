// The main package for the fuelwatch executable.
package main

import (
	"github.com/tmasselin/fuelwatch/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
