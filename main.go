package main

import "github.com/tessro/skyplay/internal/cli"

func main() {
	cli.Execute()
}
