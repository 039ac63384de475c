package main

import "github.com/audiolibrelab/takedeck/cmd"

func main() {
	cmd.Execute()
}
