package main

import "github.com/bassamadnan/tripmail/cmd"

func main() {
	cmd.Execute()
}
