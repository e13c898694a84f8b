package main

import "github.com/dup0630/param-ext-mcgill-phac/internal/cli"

func main() {
	cli.Execute()
}
