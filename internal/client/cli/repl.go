package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Unlock(ctx context.Context) error
	Put(ctx context.Context, args []string) error
	Get(ctx context.Context, args []string) error
	List(ctx context.Context) error
	NativePut(ctx context.Context, args []string) error
	NativeGet(ctx context.Context, args []string) error
	Forget(ctx context.Context, args []string) error
	Clear(ctx context.Context) error
}

const helpLocked = "Available commands: unlock, list, forget, clear, exit"

const helpUnlocked = `Available commands:
  put <path>              encrypt and upload a file as a blob
  get <blobId> <out>      download and decrypt a blob
  list                    list uploaded files
  forget <blobId>         remove a file from the list, keep the stored blob
  nput <path>             upload a file through the native bridge
  nget <fileDataId> [out] download a file through the native bridge
  clear                   remove temporary files of the native bridge
  exit                    leave the program`

// runREPL reads commands line by line from r until EOF or "exit".
// Errors returned by commands are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("vb %s > ", statusFn()))
		line, err := r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn(helpUnlocked)
			} else {
				printlnFn(helpLocked)
			}
		case "unlock":
			cmdErr = a.Unlock(ctx)
		case "put":
			cmdErr = a.Put(ctx, args)
		case "get":
			cmdErr = a.Get(ctx, args)
		case "l", "list":
			cmdErr = a.List(ctx)
		case "nput":
			cmdErr = a.NativePut(ctx, args)
		case "nget":
			cmdErr = a.NativeGet(ctx, args)
		case "forget":
			cmdErr = a.Forget(ctx, args)
		case "clear":
			cmdErr = a.Clear(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
