package main

import "github.com/robotalks/teststand/pkg/console"

func main() {
	console.Main()
}
