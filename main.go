package main

import "github.com/jsphweid/notewindow/cmd"

func main() {
	cmd.Execute()
}
