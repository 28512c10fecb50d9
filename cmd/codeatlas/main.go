package main

import "github.com/codeatlas/codeatlas/internal/cli"

func main() {
	cli.Execute()
}
