package main

import "dupesweep/cmd"

func main() {
	cmd.Execute()
}
