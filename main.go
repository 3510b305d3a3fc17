package main

import "github.com/rodrigosramos/fundeb-mvp/cmd"

func main() {
	cmd.Execute()
}
