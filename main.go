package main

import "github.com/hoppxi/luxflex/internal/cmd"

func main() {
	cmd.Execute()
}
