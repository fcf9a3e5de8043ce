package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Travis-Britz/renewip"
)

// Prompter asks the operator the setup questions.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// readSecret reads a line without echoing it. nil means read it like any other answer.
	readSecret func() (string, error)
	// restore puts the terminal back the way NewPrompter found it.
	restore func() error
}

// NewPrompter reads answers from in and writes questions to out.
// When in is a terminal, the session cookie is read without echo.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		if state, err := term.GetState(fd); err == nil {
			p.restore = func() error { return term.Restore(fd, state) }
		}
		p.readSecret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out)
			return string(b), err
		}
	}
	return p
}

// Restore resets the terminal to the state it was in when the Prompter was created.
// Call it when a Collect is abandoned while the cookie is being read without echo.
// It does nothing when input is not a terminal.
func (p *Prompter) Restore() error {
	if p.restore == nil {
		return nil
	}
	return p.restore()
}

// Collect asks every question and returns the answers.
// Required answers are asked again until they are not empty.
func (p *Prompter) Collect() (renewip.Configuration, error) {
	var cfg renewip.Configuration
	var err error

	fmt.Fprintln(p.out, "Config not yet present.")
	if cfg.PrintAddress, err = p.yesNo("Do you want the script to print your IP? (y/n): "); err != nil {
		return cfg, err
	}
	if cfg.SaveAddress, err = p.yesNo("Do you want the script to save your IP into a list of used IPs? (y/n): "); err != nil {
		return cfg, err
	}

	fmt.Fprintln(p.out, "How to get: ")
	fmt.Fprintln(p.out, "Go to https://espace-client.orange.fr/equipement and click on your livebox.")
	fmt.Fprintln(p.out, "You'll get 2 numbers at the end of the url, first is the contract id and second is the device id.")
	if cfg.ContractID, err = p.required("Please enter your contract ID: ", p.line); err != nil {
		return cfg, err
	}
	if cfg.DeviceID, err = p.required("Please enter your device ID: ", p.line); err != nil {
		return cfg, err
	}

	fmt.Fprintln(p.out, "How to get: ")
	fmt.Fprintln(p.out, "Go back to the previous URL for your livebox and open the devtools, then go to the \"Network\" tab.")
	fmt.Fprintln(p.out, "Search for \"key\" and refresh the page. You'll find 2 requests, a POST and an OPTIONS, click on the POST one.")
	fmt.Fprintln(p.out, "On the right, click on the \"Headers\" tab, find the Request Headers and enable \"raw\".")
	fmt.Fprintln(p.out, "Inside there, find the Cookie header and copy its value (the part after Cookie: )")
	readCookie := p.line
	if p.readSecret != nil {
		readCookie = p.readSecret
	}
	cookie, err := p.required("Please enter your cookie: ", readCookie)
	if err != nil {
		return cfg, err
	}
	cfg.Cookie = cleanCookie(cookie)
	if cfg.Cookie == "" {
		return cfg, errors.New("cookie cannot be empty")
	}
	return cfg, nil
}

func (p *Prompter) line() (string, error) {
	s, err := p.in.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && s != "":
		// last answer without a trailing newline
	case errors.Is(err, io.EOF):
		return "", io.ErrUnexpectedEOF
	default:
		return "", fmt.Errorf("error reading from stdin: %w", err)
	}
	return strings.TrimSpace(s), nil
}

func (p *Prompter) yesNo(question string) (bool, error) {
	fmt.Fprint(p.out, question)
	answer, err := p.line()
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(answer), "y"), nil
}

func (p *Prompter) required(question string, read func() (string, error)) (string, error) {
	for {
		fmt.Fprint(p.out, question)
		answer, err := read()
		if err != nil {
			return "", err
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			return answer, nil
		}
	}
}

// cleanCookie accepts both the raw header value and a pasted "Cookie: ..." header line.
func cleanCookie(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len("cookie:") && strings.EqualFold(s[:len("cookie:")], "cookie:") {
		s = s[len("cookie:"):]
	}
	return strings.TrimSpace(s)
}
