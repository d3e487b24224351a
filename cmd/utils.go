package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/chukul/fedctl/internal"
	"github.com/chukul/fedctl/internal/ui"
	"golang.org/x/term"
)

func readMFACode() string {
	fmt.Print("Enter your identity provider MFA code: ")
	var code string
	var char byte
	buf := make([]byte, 1)

	oldState, err := term.MakeRaw(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("❌ Failed to set terminal mode: %v", err)
	}
	defer term.Restore(int(syscall.Stdin), oldState)

	for {
		_, err := syscall.Read(syscall.Stdin, buf)
		if err != nil {
			log.Fatalf("❌ Failed to read input: %v", err)
		}
		char = buf[0]

		if char == 13 || char == 10 { // Enter
			fmt.Print("\r\n")
			break
		} else if char == 127 || char == 8 { // Backspace
			if len(code) > 0 {
				code = code[:len(code)-1]
				fmt.Print("\b \b")
			}
		} else if char >= 32 && char <= 126 { // Printable characters
			code += string(char)
			fmt.Print("*")
		}
	}

	return strings.TrimSpace(code)
}

func attended() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// openStore wires the platform secure-storage backend.
func openStore() (*internal.Store, error) {
	backend, err := internal.DefaultBackend()
	if err != nil {
		return nil, err
	}
	return internal.NewStore(backend), nil
}

// newBroker builds the session broker. When a terminal is attached it can
// prompt for the IdP identity and MFA codes; unattended runs fail instead
// of hanging on input.
func newBroker(store *internal.Store, region string) *internal.Broker {
	broker := internal.NewBroker(store, internal.NewGateway(region))
	if !attended() {
		return broker
	}

	broker.OTP = func() (string, error) {
		return readMFACode(), nil
	}
	broker.PromptLogin = func() (string, string, error) {
		email, err := ui.GetInput("Identity provider email", "you@example.com", false)
		if err != nil {
			return "", "", err
		}
		password, err := ui.GetInput("Identity provider password", "", true)
		if err != nil {
			return "", "", err
		}
		fmt.Fprintln(os.Stderr, "🔐 Login details saved in your OS secure storage.")
		return strings.TrimSpace(email), password, nil
	}
	return broker
}
