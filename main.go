package main

import (
	"fmt"

	"github.com/zeu5/dodge-rl/commands"
)

// main entry point, the menu runs when no subcommand is given
func main() {
	rootCommand := commands.GetRootCommand()
	if err := commands.Execute(rootCommand); err != nil {
		fmt.Println(err)
	}
}
