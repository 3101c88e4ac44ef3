package main

import "reviewhub/cmd/loader/command"

func main() {
	command.Execute()
}
