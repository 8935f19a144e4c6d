package main

import "github.com/qnxg/yqwork/cmd"

func main() {
	cmd.Execute()
}
