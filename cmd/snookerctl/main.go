package main

import "github.com/mcoot/snookercounter/internal/cli"

func main() {
	cli.Execute()
}
