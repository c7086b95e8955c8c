/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/candrle20/researchtools/cmd"

func main() {
	cmd.Execute()
}
