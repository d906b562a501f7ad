package main

import "github.com/groblegark/seance/internal/cmd"

func main() {
	cmd.Execute()
}
