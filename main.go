package main

import "github.com/chaos-io/rembg/cmd"

func main() {
	cmd.Execute()
}
