package main

import "github.com/mcoot/pongduel-go/internal/cli"

func main() {
	cli.Execute()
}
