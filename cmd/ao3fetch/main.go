package main

import (
	cmd "github.com/ficscrape/ao3fetch/internal/cli"
)

func main() {
	cmd.Execute()
}
