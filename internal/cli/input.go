package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// GetCode prints a prompt to w and reads a login code from the terminal
// without echo. A newline is printed after the read to keep the UI tidy.
func GetCode(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Enter code: "); err != nil {
		return nil, err
	}
	code, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return code, nil
}
