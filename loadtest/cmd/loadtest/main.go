// Package main is the entry point for the StudySafe load test binary.
// It provides subcommands for different load testing scenarios:
//
//   - questions: Input moderation throughput test
//   - outputs:   Output moderation throughput test
//
// Usage:
//
//	loadtest <command> [options]
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "questions":
		runQuestions(os.Args[2:])
	case "outputs":
		runOutputs(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: loadtest <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  questions   Input moderation throughput test with a mixed question corpus")
	fmt.Println("  outputs     Output moderation throughput test with generated-response samples")
	fmt.Println()
	fmt.Println("Run 'loadtest <command> -h' for command-specific options.")
}
