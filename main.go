package main

import "github.com/fakeyudi/timetxt/cmd"

func main() {
	cmd.Execute()
}
