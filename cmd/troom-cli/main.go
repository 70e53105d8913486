package main

import "github.com/nfrund/troom/cmd/troom-cli/cmd"

func main() {
	cmd.Execute()
}
