package main

import "github.com/shouni/go-pma-exact/cmd"

func main() {
	cmd.Execute()
}
