package main

import "github.com/mkarlsen/assessrec/cmd"

func main() {
	cmd.Execute()
}
