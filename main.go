package main

import "github.com/cruisectl/truthmarket/cmd"

func main() {
	cmd.Execute()
}
