package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
)

// Command represents a sub-command of sigc
type Command struct {
	Name        string
	Description string
	FlagSet     *flag.FlagSet
	Run         func() error
}

var commands = make(map[string]*Command)

func main() {
	defineCommands()

	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sigc <command> [options]")
		printCommands()
		flag.PrintDefaults()
		os.Exit(1)
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmdName)
		printCommands()
		os.Exit(1)
	}

	cmd.FlagSet.Parse(args[1:])

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defineCommands() {
	for _, cmd := range []*Command{newCheckCommand(), newCompileCommand()} {
		commands[cmd.Name] = cmd
	}
}

func printCommands() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "Available commands:")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\t%s\n", name, commands[name].Description)
	}
}
