package main

import (
	"fmt"

	"github.com/LondonNode/anvil/benchmarks"
)

// main entry point to the bundled training runs
func main() {
	rootCommand := benchmarks.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
	}
}
