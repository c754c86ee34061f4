package main

import "github.com/brogergvhs/comicd/cmd"

func main() {
	cmd.Execute()
}
