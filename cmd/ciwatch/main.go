package main

import "github.com/s22625/ciwatch/internal/cli"

func main() {
	cli.Execute()
}
