package main

import "github.com/humcp/humcp/cmd"

func main() {
	cmd.Execute()
}
