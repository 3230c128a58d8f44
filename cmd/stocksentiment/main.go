package main

import "stocksentiment/internal/cli"

func main() {
	cli.Run()
}
