package main

// main runs the translationhash command line.
func main() {
	Execute()
}
