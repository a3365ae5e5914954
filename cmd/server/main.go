// Package main provides the phishing detection HTTP server.
//
// Usage:
//
//	server --config phish.yaml
package main

func main() {
	Execute()
}
