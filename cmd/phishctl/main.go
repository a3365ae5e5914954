// Package main provides phishctl, a command line client for the detection
// service that runs checks in process against the configured stores.
//
// Usage:
//
//	phishctl check <url> --title "Sign in" --screenshot shot.png
//	phishctl capabilities
//	phishctl token <identity>
package main

func main() {
	Execute()
}
