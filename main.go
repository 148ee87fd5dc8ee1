package main

import "github.com/kozaktomas/ssim-matrix/cmd"

func main() {
	cmd.Execute()
}
