package main

import "dubber/cmd"

func main() {
	cmd.Execute()
}
