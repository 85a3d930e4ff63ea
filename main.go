package main

import "cyberdrum/cmd"

func main() {
	cmd.Execute()
}
