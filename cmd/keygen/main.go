// Command keygen writes a new ENCRYPTION_KEY to a dotenv file. It refuses to
// touch a file that already defines the key, so running it twice never rotates
// an existing key.
package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/ericfisherdev/graphdesk/internal/keygen"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env-file", ".env", "dotenv file to append the key to")
	name := fs.String("name", keygen.DefaultVariable, "variable name to write")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	_, err := keygen.Generate(*envFile, *name, rand.Reader)
	switch {
	case errors.Is(err, keygen.ErrAlreadyExists):
		_, _ = fmt.Fprintf(stdout, "%s already exists in %s\n", *name, *envFile)
		return 0
	case err != nil:
		_, _ = fmt.Fprintf(stderr, "keygen: %v\n", err)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "%s written to %s\n", *name, *envFile)
	return 0
}
