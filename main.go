package main

import "github.com/sw33tLie/applinks/cmd"

func main() {
	cmd.Execute()
}
