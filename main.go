package main

import "github.com/Mur0dDev/Classification-Bot/cmd"

func main() {
	cmd.Execute()
}
