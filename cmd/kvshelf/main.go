// kvshelf is an interactive CLI over a kvshelf.Store.
//
// Usage:
//
//	kvshelf [--path file] [--index-size N] [--truncate] [--config file]
//
// Commands (in REPL):
//
//	put <key> <value>         Store a string value
//	get <key>                 Retrieve a string value
//	del <key>                 Delete a string value
//	fetchdel <key>            Delete and print a string value
//	append <key> <value>      Push a value onto the tail of a list
//	prepend <key> <value>     Push a value onto the head of a list
//	pop <key>                 Remove and print the last list element
//	popfirst <key>            Remove and print the first list element
//	info                      Show the active configuration
//	help                      Show this help
//	exit / quit / q           Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/kvshelf/kvshelf/pkg/kvshelf"
)

func main() {
	os.Exit(run())
}

func run() int {
	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)

		return 1
	}

	flagSet := flag.NewFlagSet("kvshelf", flag.ContinueOnError)

	path := flagSet.String("path", "", "data file path")
	indexSize := flagSet.Uint32("index-size", 0, "index size in bytes for a newly created file")
	truncate := flagSet.Bool("truncate", false, "discard any existing file content on open")
	configPath := flagSet.String("config", "", "path to a .kvshelf.json config file")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return 1
	}

	cfg, err := LoadConfig(workDir, *configPath, Config{
		Path:      *path,
		IndexSize: *indexSize,
		Truncate:  *truncate,
	}, flagSet.Changed("path"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)

		return 1
	}

	store, err := kvshelf.Open(kvshelf.Config{
		Backend:   kvshelf.BackendFile,
		Path:      cfg.Path,
		IndexSize: cfg.IndexSize,
		Truncate:  cfg.Truncate,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: opening store:", err)

		return 1
	}

	defer store.Close()

	repl := &REPL{store: store, cfg: cfg}

	if err := repl.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)

		return 1
	}

	return 0
}

// REPL is the interactive command loop over a kvshelf.Store.
type REPL struct {
	store kvshelf.Store
	cfg   Config
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".kvshelf_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("kvshelf - interactive store CLI (path=%s)\n", r.cfg.Path)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("kvshelf> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "put":
			r.cmdPut(args)

		case "get":
			r.cmdGet(args)

		case "del", "delete", "remove":
			r.cmdDel(args)

		case "fetchdel", "fetchremove":
			r.cmdFetchDel(args)

		case "append", "rpush":
			r.cmdAppend(args)

		case "prepend", "lpush":
			r.cmdPrepend(args)

		case "pop", "rpop":
			r.cmdPop(args)

		case "popfirst", "lpop":
			r.cmdPopFirst(args)

		case "info":
			r.cmdInfo()

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"put", "get", "del", "delete", "remove", "fetchdel", "fetchremove",
		"append", "rpush", "prepend", "lpush", "pop", "rpop", "popfirst", "lpop",
		"info", "clear", "cls", "help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  put <key> <value>       Store a string value")
	fmt.Println("  get <key>               Retrieve a string value")
	fmt.Println("  del <key>               Delete a string value")
	fmt.Println("  fetchdel <key>          Delete and print a string value")
	fmt.Println("  append <key> <value>    Push a value onto the tail of a list")
	fmt.Println("  prepend <key> <value>   Push a value onto the head of a list")
	fmt.Println("  pop <key>               Remove and print the last list element")
	fmt.Println("  popfirst <key>          Remove and print the first list element")
	fmt.Println("  info                    Show the active configuration")
	fmt.Println("  help                    Show this help")
	fmt.Println("  exit / quit / q         Exit")
}

func (r *REPL) cmdPut(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: put <key> <value>")

		return
	}

	if err := r.store.Put([]byte(args[0]), []byte(strings.Join(args[1:], " "))); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("OK")
}

func (r *REPL) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get <key>")

		return
	}

	value, err := r.store.Get([]byte(args[0]))
	if err != nil {
		if errors.Is(err, kvshelf.ErrNotFound) {
			fmt.Println("(not found)")

			return
		}

		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("%q\n", value)
}

func (r *REPL) cmdDel(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: del <key>")

		return
	}

	if err := r.store.Remove([]byte(args[0])); err != nil {
		if errors.Is(err, kvshelf.ErrNotFound) {
			fmt.Println("(not found)")

			return
		}

		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("OK")
}

func (r *REPL) cmdFetchDel(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: fetchdel <key>")

		return
	}

	value, err := r.store.FetchRemove([]byte(args[0]))
	if err != nil {
		if errors.Is(err, kvshelf.ErrNotFound) {
			fmt.Println("(not found)")

			return
		}

		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("%q\n", value)
}

func (r *REPL) cmdAppend(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: append <key> <value>")

		return
	}

	if err := r.store.Append([]byte(args[0]), []byte(strings.Join(args[1:], " "))); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("OK")
}

func (r *REPL) cmdPrepend(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: prepend <key> <value>")

		return
	}

	if err := r.store.Prepend([]byte(args[0]), []byte(strings.Join(args[1:], " "))); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("OK")
}

func (r *REPL) cmdPop(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: pop <key>")

		return
	}

	value, err := r.store.Pop([]byte(args[0]))
	if err != nil {
		if errors.Is(err, kvshelf.ErrNotFound) {
			fmt.Println("(not found)")

			return
		}

		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("%q\n", value)
}

func (r *REPL) cmdPopFirst(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: popfirst <key>")

		return
	}

	value, err := r.store.PopFirst([]byte(args[0]))
	if err != nil {
		if errors.Is(err, kvshelf.ErrNotFound) {
			fmt.Println("(not found)")

			return
		}

		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("%q\n", value)
}

func (r *REPL) cmdInfo() {
	formatted, err := FormatConfig(r.cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println(formatted)
}
