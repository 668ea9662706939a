package main

import "github.com/ogulcanaydogan/balchk/internal/cli"

func main() {
	cli.Execute()
}
