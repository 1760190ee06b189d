package main

import "mangadex-dl/cmd"

func main() {
	cmd.Execute()
}
