// Command stormctl inspects the ATCF feed and the best-track archive from the
// command line. It shares configuration with the atcf service.
package main

func main() {
	Execute()
}
