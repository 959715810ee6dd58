package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal seams, replaced in tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
)

var errEmptyUsername = errors.New("username must not be empty")

// readLine prints "prompt: " and returns one trimmed line. A final line
// without a newline is accepted.
func readLine(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptCredentials asks for whatever login is missing. The password is
// read without echo from a terminal, or as the next input line when stdin
// is piped. The caller wipes the returned password.
func promptCredentials(r *bufio.Reader, w io.Writer, user string) (string, []byte, error) {
	if user == "" {
		var err error
		if user, err = readLine(r, w, "Username"); err != nil {
			return "", nil, err
		}
		if user == "" {
			return "", nil, errEmptyUsername
		}
	}

	if fd := stdinFd(); isTerminal(fd) {
		fmt.Fprint(w, "Password: ")
		pw, err := readPassword(fd)
		fmt.Fprintln(w)
		return user, pw, err
	}
	pw, err := readLine(r, w, "Password")
	if err != nil {
		return "", nil, err
	}
	return user, []byte(pw), nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
