package main

import "github.com/KaramelBytes/gamestats-cli/cmd"

func main() {
	cmd.Execute()
}
