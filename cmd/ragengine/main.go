// Command ragengine ingests text into a vector collection and answers
// questions from it with a language model.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
