package main

import "ppms/internal/cli"

func main() {
	cli.Execute()
}
