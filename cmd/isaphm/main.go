package main

import "github.com/NathanHouwaart/ISA-PHM-Backend/cmd/isaphm/cmd"

func main() {
	cmd.Execute()
}
