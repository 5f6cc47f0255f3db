package main

import "github.com/ValentinKolb/grl/cmd"

func main() {
	cmd.Execute()
}
