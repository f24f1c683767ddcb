package main

import "github.com/brogergvhs/reciterd/cmd"

func main() {
	cmd.Execute()
}
