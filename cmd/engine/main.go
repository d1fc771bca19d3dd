// Command cluster-engine drives one infrastructure or environment engine
// request end to end: read it from --request-file (or stdin), wire up the
// cloud stack for the configured kind, and run it to completion.
package main

func main() {
	Execute()
}
