package main

import "github.com/tabvault/tabvault/cmd/tabvault/cmd"

func main() {
	cmd.Execute()
}
