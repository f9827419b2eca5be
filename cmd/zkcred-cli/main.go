package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	ledgeradapter "github.com/agentforge/zkcred/internal/adapter/driven/ledger"
	"github.com/agentforge/zkcred/internal/domain/port/driven"
)

const banner = `
        _                       _
  _____| | _____ _ __ ___  __| |
 |_  / |/ / / __| '__/ _ \/ _' |
  / /|   < | (__| | |  __/ (_| |
 /___|_|\_\ \___|_|  \___|\__,_|
`

func main() {
	ldg := buildLedger()

	if len(os.Args) < 2 {
		runMenu(ldg)
		return
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "issue":
		err = cmdIssue(ldg, args)
	case "verify":
		err = cmdVerify(ldg, args)
	case "report-blocked":
		err = cmdReportBlocked(ldg)
	case "stats":
		err = cmdStats(ldg)
	case "menu":
		runMenu(ldg)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

// buildLedger wires the ledger client with simulator failover, mirroring the
// server's wiring. A quiet logger keeps CLI output readable.
func buildLedger() *ledgeradapter.Failover {
	url := os.Getenv("ZKCRED_LEDGER_URL")
	if url == "" {
		url = "http://127.0.0.1:6300"
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client := ledgeradapter.NewClient(url, 30*time.Second, logger)
	return ledgeradapter.NewFailover(client, ledgeradapter.NewSimulator(), logger)
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: zkcred-cli <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  issue <agent-id> <secret>                Issue a credential for an agent secret")
	fmt.Println("  verify <agent-id> <secret> <hash>        Prove a secret against a commitment hash")
	fmt.Println("  report-blocked                           Record a blocked attempt on the ledger")
	fmt.Println("  stats                                    Show ledger counters")
	fmt.Println("  menu                                     Interactive menu (default with no args)")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  ZKCRED_LEDGER_URL    Ledger endpoint (default: http://127.0.0.1:6300)")
	fmt.Println()
}

func cmdIssue(ldg driven.Ledger, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: zkcred-cli issue <agent-id> <secret>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := ldg.IssueCredential(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	color.Green("Credential issued")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "tx hash:\t%s\n", result.TxHash)
	fmt.Fprintf(w, "commitment:\t%s\n", result.CredentialHash)
	fmt.Fprintf(w, "proof:\t%s\n", truncate(result.ZKProof, 40))
	fmt.Fprintf(w, "mode:\t%s\n", modeLabel(result.Simulated))
	return w.Flush()
}

func cmdVerify(ldg driven.Ledger, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: zkcred-cli verify <agent-id> <secret> <hash>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := ldg.VerifyAuthorization(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}

	if result.Verified {
		color.Green("VERIFIED (tx %s, %s)", result.TxHash, modeLabel(result.Simulated))
	} else {
		color.Red("NOT VERIFIED (%s)", modeLabel(result.Simulated))
	}
	return nil
}

func cmdReportBlocked(ldg driven.Ledger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	txHash, err := ldg.ReportBlocked(ctx)
	if err != nil {
		return err
	}

	color.Yellow("Blocked attempt recorded (tx %s)", txHash)
	return nil
}

func cmdStats(ldg driven.Ledger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := ldg.Stats(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "credentials issued:\t%d\n", stats.TotalCredentials)
	fmt.Fprintf(w, "successful auths:\t%d\n", stats.SuccessfulAuths)
	fmt.Fprintf(w, "blocked attempts:\t%d\n", stats.BlockedAttempts)
	fmt.Fprintf(w, "mode:\t%s\n", modeLabel(stats.Simulated))
	return w.Flush()
}

// runMenu is the interactive loop: numbered choices, prompts for each input.
func runMenu(ldg *ledgeradapter.Failover) {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println()
		fmt.Println("  1. Issue credential")
		fmt.Println("  2. Verify authorization")
		fmt.Println("  3. Report blocked attempt")
		fmt.Println("  4. Ledger stats")
		fmt.Println("  5. Quit")
		fmt.Print("> ")

		choice, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		switch strings.TrimSpace(choice) {
		case "1":
			agentID := prompt(reader, "agent id")
			secret := prompt(reader, "agent secret")
			if err := cmdIssue(ldg, []string{agentID, secret}); err != nil {
				color.Red("Error: %v", err)
			}
		case "2":
			agentID := prompt(reader, "agent id")
			secret := prompt(reader, "agent secret")
			hash := prompt(reader, "commitment hash")
			if err := cmdVerify(ldg, []string{agentID, secret, hash}); err != nil {
				color.Red("Error: %v", err)
			}
		case "3":
			if err := cmdReportBlocked(ldg); err != nil {
				color.Red("Error: %v", err)
			}
		case "4":
			if err := cmdStats(ldg); err != nil {
				color.Red("Error: %v", err)
			}
		case "5", "q", "quit", "exit":
			return
		default:
			color.Yellow("Pick 1-5")
		}
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func modeLabel(simulated bool) string {
	if simulated {
		return "simulated"
	}
	return "connected"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
