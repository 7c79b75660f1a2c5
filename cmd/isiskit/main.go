package main

import "github.com/scitools/isiskit/cmd/isiskit/cmd"

func main() {
	cmd.Execute()
}
