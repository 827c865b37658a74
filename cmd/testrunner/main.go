package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lawnchairsociety/mysticalmap/test"
)

func main() {
	serverAddr := flag.String("addr", "localhost:8080", "Preview service address")
	verbose := flag.Bool("v", false, "Verbose output - show detailed actions for each test")
	flag.Parse()

	test.Verbose = *verbose

	fmt.Printf("Running smoke tests against %s\n", *serverAddr)
	fmt.Println("Make sure mapd is running!")
	fmt.Println()

	results := test.RunAllTests(*serverAddr)
	test.PrintResults(results)

	for _, result := range results {
		if !result.Passed {
			os.Exit(1)
		}
	}
}
