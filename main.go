package main

import "github.com/oneyoungman/bosuoyun/cmd"

func main() {
	cmd.Execute()
}
