package main

import "github.com/hartfelt/mediakeep/cmd"

func main() {
	cmd.Execute()
}
