package main

import "courierplan/internal/cli"

func main() {
	cli.Execute()
}
