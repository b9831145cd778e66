// Command rcon is a small command-line front end over the rcon package: a
// one-shot mode for a single command and an interactive REPL for many.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/go-rcon/rcon"
)

func main() {
	addr := flag.String("addr", "", "server address, host:port")
	command := flag.String("cmd", "", "command to run once and exit; omit for an interactive session")
	charset := flag.String("charset", "utf8", "payload charset: utf8 or iso8859-1")
	flag.Parse()

	if *addr == "" {
		fmt.Fprintln(os.Stderr, "rcon: -addr is required")
		os.Exit(2)
	}
	host, port, err := splitHostPort(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rcon: -addr: %v\n", err)
		os.Exit(2)
	}

	logger := rcon.DefaultLogger()

	password, err := resolvePassword()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rcon: %v\n", err)
		os.Exit(1)
	}

	opts := []rcon.SessionOption{rcon.WithLogger(logger)}
	switch strings.ToLower(*charset) {
	case "utf8", "":
		opts = append(opts, rcon.WithCharset(rcon.UTF8))
	case "iso8859-1", "latin1":
		opts = append(opts, rcon.WithCharset(rcon.ISO88591))
	default:
		fmt.Fprintf(os.Stderr, "rcon: unknown charset %q\n", *charset)
		os.Exit(2)
	}

	client := rcon.NewClient(host, port, password, rcon.WithSessionOptions(opts...))
	if err := client.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "rcon: connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if *command != "" {
		runOnce(client, *command)
		return
	}
	runREPL(client)
}

func runOnce(client *rcon.Client, command string) {
	out, err := client.Execute(command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rcon: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

func runREPL(client *rcon.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stderr, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(os.Stderr, "> ")
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		out, err := client.Execute(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rcon: %v\n", err)
			var protoErr *rcon.ProtocolError
			var connErr *rcon.ConnectionError
			if errors.As(err, &protoErr) || errors.As(err, &connErr) {
				return
			}
			fmt.Fprint(os.Stderr, "> ")
			continue
		}
		fmt.Println(out)
		fmt.Fprint(os.Stderr, "> ")
	}
}

// resolvePassword reads the server password from RCON_PASSWORD if set, or
// prompts for it on the controlling terminal with echo disabled.
func resolvePassword() (string, error) {
	if pw := os.Getenv("RCON_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "password: ")
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return "", fmt.Errorf("no password supplied on stdin")
		}
		return scanner.Text(), nil
	}

	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// splitHostPort splits addr into a host and a port, defaulting the port to
// 0 (which NewClient treats as DefaultPort) when addr carries no port at
// all. A port that is present but not a valid number is a usage error
// rather than something to paper over: silently falling back to
// DefaultPort would connect to the wrong server.
func splitHostPort(addr string) (host string, port int, err error) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return addr, 0, nil
	}
	host = addr[:i]
	port, err = strconv.Atoi(addr[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q in %q", addr[i+1:], addr)
	}
	return host, port, nil
}
