// Command roster serves and maintains the user directory.
//
// Usage:
//
//	roster [flags] <command>
//
// Commands:
//   - serve: run the HTTP API
//   - migrate: create missing tables
//   - users list|create: query or register users from the terminal
//   - version: print the build version
package main

func main() {
	Execute()
}
