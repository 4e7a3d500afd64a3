package main

import "github.com/nfrund/studybuddy/cmd/studybuddy/cmd"

func main() {
	cmd.Execute()
}
