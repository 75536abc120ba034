package vmexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"infrachat/app/client/llm"
	"infrachat/app/config"
	"infrachat/app/service/retrieval"

	"github.com/samber/do"
	"golang.org/x/crypto/ssh"
)

const (
	dialTimeout   = 10 * time.Second
	maxTableChars = 8000
)

type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service runs a model-generated inspection command on the managed VM over
// SSH and renders dpkg-style output as a table. It backs the password-bearing
// structured command channel and is never reachable from free-text routing.
type Service struct {
	llm  completer
	host string
	user string
	port int
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Service{
		llm:  do.MustInvoke[*llm.Client](di),
		host: cfg.VM.Host,
		user: cfg.VM.User,
		port: cfg.VM.Port,
	}, nil
}

func (s *Service) Fetch(ctx context.Context, password, query string) ([]retrieval.Evidence, error) {
	if s.host == "" {
		return connectionError(), nil
	}

	prompt := fmt.Sprintf(
		"Please output the Linux command for the following request.\n"+
			"Only output the command without any explanation.\n"+
			"Example: dpkg --list\n\n"+
			"Request: %s", query)

	command, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate command: %w", err)
	}

	output, err := s.runCommand(password, command)
	if err != nil {
		slog.Error("VM command failed", "command", command, "error", err)
		return connectionError(), nil
	}

	table := parseDpkgOutput(output)
	table = truncateTable(table)

	return []retrieval.Evidence{{
		Title:   "VM Installed Packages (dpkg --list)",
		Content: fmt.Sprintf("## Installed packages:\n\n%s\n", table),
	}}, nil
}

func (s *Service) runCommand(password, command string) ([]string, error) {
	client, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", s.host, s.port), &ssh.ClientConfig{
		User:            s.user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("SSH connection failed: %w", err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open SSH session: %w", err)
	}
	defer session.Close()

	output, err := session.Output(command)
	if err != nil {
		return nil, fmt.Errorf("command execution failed: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(output), "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}

	return lines, nil
}

// parseDpkgOutput keeps only package rows (status ii/rc/un/pn) and renders
// them as a markdown table.
func parseDpkgOutput(lines []string) string {
	var packageLines []string
	for _, line := range lines {
		if len(line) > 4 {
			switch line[0:2] {
			case "ii", "rc", "un", "pn":
				packageLines = append(packageLines, line)
			}
		}
	}

	if len(packageLines) == 0 {
		return "No installed packages found."
	}

	var builder strings.Builder
	builder.WriteString("| Status | Package Name | Version | Architecture | Description |\n")
	builder.WriteString("|--------|--------------|---------|--------------|-------------|\n")

	for _, line := range packageLines {
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}

		description := ""
		if len(parts) > 4 {
			description = strings.Join(parts[4:], " ")
		}

		builder.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			parts[0], parts[1], parts[2], parts[3], description))
	}

	return builder.String()
}

// truncateTable halves the data rows until the table fits the prompt budget,
// keeping the header.
func truncateTable(table string) string {
	if len(table) <= maxTableChars {
		return table
	}

	lines := strings.Split(table, "\n")
	if len(lines) <= 2 {
		return table
	}

	header := lines[:2]
	data := lines[2:]

	for {
		data = data[:len(data)/2]

		kept := append(append([]string{}, header...), data...)
		kept = append(kept, "| ... | (truncated) | ... | ... | ... |")

		truncated := strings.Join(kept, "\n")
		if len(truncated) <= maxTableChars || len(data) == 0 {
			return truncated
		}
	}
}

func connectionError() []retrieval.Evidence {
	return []retrieval.Evidence{{
		Title:   "VM Connection Error",
		Content: "## Error:\nFailed to connect to the VM. Check the password and try again.\n",
	}}
}
