package main

import "gmailarchive/internal/interfaces/cli"

func main() {
	cli.Execute()
}
