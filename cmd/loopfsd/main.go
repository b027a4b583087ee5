package main

import "github.com/loopfs/loopfs/cmd/loopfsd/cmd"

func main() {
	cmd.Execute()
}
