package main

import "github.com/forgemk/forgemk/internal/cli"

func main() {
	cli.Execute()
}
