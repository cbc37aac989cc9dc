package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it
// with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a
// lightweight stub.
type execIface interface {
	Add(ctx context.Context, kind string) error
	AddDiary(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Done(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Tag(ctx context.Context, id string, tags []string) error
	Classify(ctx context.Context, id string) error
	Matrix(ctx context.Context) error
	Backends(ctx context.Context) error
	Grant(ctx context.Context, path string) error
	SignIn(ctx context.Context, name string) error
	SignOut(ctx context.Context, name string) error
	Sync(ctx context.Context, name string) error
	Pull(ctx context.Context, name string) error
	AutoSync(ctx context.Context, on bool) error
	Reset(ctx context.Context) error
}

const helpText = `Available commands:
  add <task|note|reminder|capture> - create a record (content prompted)
  diary                            - write a diary entry
  list [kind] [#tag]               - list records
  done <id> | archive <id>         - complete / archive a record
  delete <id>                      - delete a record
  tag <id> <tags...>               - add tags
  classify <id>                    - assign an Eisenhower quadrant
  matrix                           - show the Eisenhower matrix
  backends                         - show sync targets and their state
  grant <path>                     - grant the folder backend a directory
  signin <backend> | signout <backend>
  sync <backend> | pull <backend>  - sync favors local, pull favors cloud
  autosync on|off                  - background interval sync
  reset                            - wipe all local data and sign out
  exit | quit`

// runREPL starts a simple read–eval–print loop for the daybook CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		printlnFn("daybook> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "add":
			if len(args) == 0 {
				printlnFn("Usage: add <task|note|reminder|capture>")
				continue
			}
			_ = a.Add(ctx, args[0])

		case "diary":
			_ = a.AddDiary(ctx)

		case "l", "list":
			_ = a.List(ctx, args)

		case "done":
			if len(args) == 0 {
				printlnFn("Usage: done <id>")
				continue
			}
			_ = a.Done(ctx, args[0])

		case "archive":
			if len(args) == 0 {
				printlnFn("Usage: archive <id>")
				continue
			}
			_ = a.Archive(ctx, args[0])

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "tag":
			if len(args) < 2 {
				printlnFn("Usage: tag <id> <tags...>")
				continue
			}
			_ = a.Tag(ctx, args[0], args[1:])

		case "classify":
			if len(args) == 0 {
				printlnFn("Usage: classify <id>")
				continue
			}
			_ = a.Classify(ctx, args[0])

		case "matrix":
			_ = a.Matrix(ctx)

		case "backends":
			_ = a.Backends(ctx)

		case "grant":
			if len(args) == 0 {
				printlnFn("Usage: grant <path>")
				continue
			}
			_ = a.Grant(ctx, args[0])

		case "signin":
			if len(args) == 0 {
				printlnFn("Usage: signin <backend>")
				continue
			}
			_ = a.SignIn(ctx, args[0])

		case "signout":
			if len(args) == 0 {
				printlnFn("Usage: signout <backend>")
				continue
			}
			_ = a.SignOut(ctx, args[0])

		case "sync":
			if len(args) == 0 {
				printlnFn("Usage: sync <backend>")
				continue
			}
			_ = a.Sync(ctx, args[0])

		case "pull":
			if len(args) == 0 {
				printlnFn("Usage: pull <backend>")
				continue
			}
			_ = a.Pull(ctx, args[0])

		case "autosync":
			if len(args) == 0 || (args[0] != "on" && args[0] != "off") {
				printlnFn("Usage: autosync on|off")
				continue
			}
			_ = a.AutoSync(ctx, args[0] == "on")

		case "reset":
			_ = a.Reset(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
