package main

import "github.com/mcoot/rankparty/internal/cli"

func main() {
	cli.Execute()
}
