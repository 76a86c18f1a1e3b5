package main

import "github.com/Rainier-MSFT/ID360Model/cmd"

func main() {
	cmd.Execute()
}
