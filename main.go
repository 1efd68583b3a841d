package main

import "github.com/KaramelBytes/vizprep-cli/cmd"

func main() {
	cmd.Execute()
}
