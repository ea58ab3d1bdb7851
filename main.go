package main

import "github.com/markb/sbrt/cmd"

func main() {
	cmd.Execute()
}
