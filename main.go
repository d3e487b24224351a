package main

import "github.com/chukul/fedctl/cmd"

func main() {
	cmd.Execute()
}
