package main

import "github.com/oy3o/podio/cmd/podump/cmd"

func main() {
	cmd.Execute()
}
