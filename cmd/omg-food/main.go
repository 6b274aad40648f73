package main

import "github.com/pfrederiksen/omg-food/internal/cli"

func main() {
	cli.Execute()
}
