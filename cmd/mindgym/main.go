package main

import "github.com/mcoot/mindgym/internal/cli"

func main() {
	cli.Execute()
}
