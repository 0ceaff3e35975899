package main

import "github.com/ThinkArcHQ/profilebase/internal/cli"

func main() {
	cli.Execute()
}
