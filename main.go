package main

import "ptraced/cmd"

func main() {
	cmd.Execute()
}
