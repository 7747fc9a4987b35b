package main

import (
	"os"
)

func main() {
	err := rootCmd.Execute()
	app.close()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
