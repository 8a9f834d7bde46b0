package main

import "pmdbsync/cmd"

func main() {
	cmd.Execute()
}
