package main

import "github.com/KaramelBytes/ledgerloom/cmd"

func main() {
	cmd.Execute()
}
