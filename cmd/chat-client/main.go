// Package main provides the interactive chat client.
// The client performs one admission round trip over TCP to create or
// join a room, then chats over UDP: one goroutine prints incoming
// messages while the main loop forwards typed lines. The input line
// "/quit" (case-insensitive) terminates the session.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chatwire/go-chat-relay/lib/client"
	"github.com/chatwire/go-chat-relay/lib/protocol"
)

// Default server ports, matching the relay's defaults.
const (
	defaultAdmissionPort = 9001
	defaultRelayPort     = 9002
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		server        string
		roomName      string
		operation     int
		admissionPort int
		relayPort     int
	)

	cmd := &cobra.Command{
		Use:           "chat-client",
		Short:         "Interactive multi-room chat client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdin := bufio.NewReader(os.Stdin)

			if !cmd.Flags().Changed("server") {
				server = promptString(stdin, "Enter server address (default '127.0.0.1'): ", "127.0.0.1")
			}
			if !cmd.Flags().Changed("room") {
				roomName = promptString(stdin, "Enter room name: ", "")
			}
			if !cmd.Flags().Changed("op") {
				operation = promptInt(stdin, "1: Create room, 2: Join room: ")
			}

			op := protocol.Operation(operation)
			if !op.Valid() {
				return fmt.Errorf("operation must be 1 (create) or 2 (join)")
			}
			if roomName == "" {
				return fmt.Errorf("room name must not be empty")
			}

			return run(stdin, server, roomName, op, admissionPort, relayPort)
		},
	}

	cmd.Flags().StringVar(&server, "server", "127.0.0.1", "Server address")
	cmd.Flags().StringVar(&roomName, "room", "", "Room name")
	cmd.Flags().IntVar(&operation, "op", 0, "Operation: 1=create, 2=join")
	cmd.Flags().IntVar(&admissionPort, "tcp-port", defaultAdmissionPort, "Server admission TCP port")
	cmd.Flags().IntVar(&relayPort, "udp-port", defaultRelayPort, "Server relay UDP port")

	return cmd
}

func run(stdin *bufio.Reader, server, roomName string, op protocol.Operation, admissionPort, relayPort int) error {
	admissionAddr := net.JoinHostPort(server, strconv.Itoa(admissionPort))
	adm, err := client.Admit(admissionAddr, op, roomName, 0)
	if err != nil {
		return err
	}
	fmt.Printf("Admitted to %q with token %s\n", roomName, adm.Token)

	relayAddr := net.JoinHostPort(server, strconv.Itoa(relayPort))
	session, err := client.NewSession(relayAddr, roomName, adm.Token, adm.LocalPort)
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Type messages; %s to exit\n", client.QuitCommand)
	return session.Run(stdin, os.Stdout)
}

func promptString(r *bufio.Reader, prompt, fallback string) string {
	fmt.Print(prompt)
	line, err := r.ReadString('\n')
	if err != nil {
		return fallback
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}

func promptInt(r *bufio.Reader, prompt string) int {
	fmt.Print(prompt)
	line, err := r.ReadString('\n')
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0
	}
	return n
}
