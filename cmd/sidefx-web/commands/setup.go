package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/tykeal/sidefx-web-cli/internal/store"
)

const credentialsDocsURL = "https://www.sidefx.com/docs/api/credentials/index.html"

// runSetup interactively collects credentials and saves a fresh persisted
// config. Any previously cached token is discarded.
func runSetup(ctx context.Context, st store.Store, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Credentials are needed in order to use the SideFX Web API. Detailed instructions available at %s\n", credentialsDocsURL)

	reader := bufio.NewReader(in)

	fmt.Fprint(out, "Enter your Client ID: ")
	clientID, err := readLine(reader)
	if err != nil {
		return fmt.Errorf("reading client ID: %w", err)
	}
	if clientID == "" {
		return fmt.Errorf("client ID cannot be empty")
	}

	fmt.Fprint(out, "Enter your Client Secret Key: ")
	secret, err := readSecret(in, reader)
	if err != nil {
		return fmt.Errorf("reading client secret key: %w", err)
	}
	fmt.Fprintln(out)
	if secret == "" {
		return fmt.Errorf("client secret key cannot be empty")
	}

	return st.Save(ctx, &store.Config{
		Credentials: store.Credentials{
			ClientID:        clientID,
			ClientSecretKey: secret,
		},
	})
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads the secret without echo when attached to a terminal and
// falls back to a plain line read otherwise (pipes, tests).
func readSecret(in io.Reader, reader *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	return readLine(reader)
}
