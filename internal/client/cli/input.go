package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// bearerToken returns the caller's access token: the FTS_TOKEN environment
// variable when set, otherwise a hidden terminal prompt.
func bearerToken(w io.Writer) (string, error) {
	if tok := os.Getenv("FTS_TOKEN"); tok != "" {
		return tok, nil
	}

	if _, err := fmt.Fprint(w, "Enter access token: "); err != nil {
		return "", err
	}
	raw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}
