package main

import "github.com/nkarimian/cardlab/cmd"

func main() {
	cmd.Execute()
}
