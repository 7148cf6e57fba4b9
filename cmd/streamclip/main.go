package main

import "github.com/forPelevin/streamclip/internal/cli"

func main() {
	cli.Main()
}
