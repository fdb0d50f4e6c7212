// Command djurls lists the reversible routes of a Django project.
package main

import "github.com/muremwa/djurls/cmd/djurls/commands"

func main() {
	commands.Execute()
}
