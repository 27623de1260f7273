package main

// ---------------------------------------------------------------------------
// banner.go — ASCII art banner and version/usage printing
// ---------------------------------------------------------------------------

import (
	"fmt"
	"io"
	"os"
	goruntime "runtime"
	"runtime/debug"
)

func bannerText() string {
	art := `
     ██╗ █████╗ ███╗   ██╗ ██████╗
     ██║██╔══██╗████╗  ██║██╔═══██╗
     ██║███████║██╔██╗ ██║██║   ██║
██   ██║██╔══██║██║╚██╗██║██║   ██║
╚█████╔╝██║  ██║██║ ╚████║╚██████╔╝
 ╚════╝ ╚═╝  ╚═╝╚═╝  ╚═══╝ ╚═════╝

     SECURITY CONFIGURATION ASSISTANT
`
	if !colorEnabled() {
		return art
	}
	return "\033[36m" + art + "\033[0m"
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "jano v%s", version)
	if commit != "dev" {
		fmt.Fprintf(w, " (%s)", commit[:min(7, len(commit))])
	}
	if buildDate != "unknown" {
		fmt.Fprintf(w, " built %s", buildDate)
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprintf(w, " %s", bi.GoVersion)
	}
	fmt.Fprintf(w, " %s/%s", goruntime.GOOS, goruntime.GOARCH)
	fmt.Fprintln(w)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, bannerText())
	fmt.Fprintf(w, "  %s\n\n", dim("v"+version))
	fmt.Fprintf(w, "%s\n\n", bold("USAGE"))
	fmt.Fprintf(w, "  jano <command> [flags]\n\n")
	fmt.Fprintf(w, "%s\n\n", bold("COMMANDS"))
	fmt.Fprintf(w, "  %-10s  %s\n", bold("serve"), "Start the Jano API server")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("status"), "Show status of a running instance")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("services"), "List services the config fixers support")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("analyze"), "Analyze a service configuration for security issues")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("fix"), "Apply security fixes to a service configuration")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("auto"), "Analyze, fix, and restart in one shot")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("restart"), "Validate and restart a service")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("chat"), "Interactive security assistant session")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("attack"), "Run an attack simulation against a target")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("logs"), "Fetch recent logs from a running instance")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("config"), "Show or generate configuration")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("version"), "Print version and build info")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("help"), "Show help for a command")
	fmt.Fprintf(w, "\n%s\n\n", bold("GLOBAL FLAGS"))
	fmt.Fprintf(w, "  %-22s  %s\n", "--config <path>", "Config file path (default: configs/default.yaml, env: JANO_CONFIG)")
	fmt.Fprintf(w, "  %-22s  %s\n", "--api-key <key>", "API key (env: JANO_API_KEY)")
	fmt.Fprintf(w, "  %-22s  %s\n", "--format <fmt>", "Output format: table, json, csv (default: table)")
	fmt.Fprintf(w, "  %-22s  %s\n", "--version, -V", "Print version and exit")
	fmt.Fprintf(w, "  %-22s  %s\n", "--help, -h", "Show help")
	fmt.Fprintf(w, "\n%s\n\n", bold("ENVIRONMENT VARIABLES"))
	fmt.Fprintf(w, "  %-22s  %s\n", "JANO_CONFIG", "Default config file path")
	fmt.Fprintf(w, "  %-22s  %s\n", "JANO_HOST", "API host override")
	fmt.Fprintf(w, "  %-22s  %s\n", "JANO_PORT", "API port override")
	fmt.Fprintf(w, "  %-22s  %s\n", "JANO_API_KEY", "API key for authentication")
	fmt.Fprintf(w, "  %-22s  %s\n", "GEMINI_API_KEY", "Gemini API key (llm plugin: gemini)")
	fmt.Fprintf(w, "  %-22s  %s\n", "OPENAI_API_KEY", "OpenAI API key (llm plugin: openai)")
	fmt.Fprintf(w, "\n%s\n\n", bold("EXAMPLES"))
	fmt.Fprintf(w, "  %s\n", dim("# Start the server"))
	fmt.Fprintf(w, "  jano serve\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# Check the SSH configuration"))
	fmt.Fprintf(w, "  jano analyze --service ssh\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# Fix only selected rules, skip the restart"))
	fmt.Fprintf(w, "  jano fix --service nginx --rules hide_server_tokens,ssl_protocols\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# Full loop: analyze, back up, fix, restart"))
	fmt.Fprintf(w, "  jano auto --service apache\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# Talk to the assistant"))
	fmt.Fprintf(w, "  jano chat\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# Probe a host you are authorized to test"))
	fmt.Fprintf(w, "  jano attack --plugin weak_ssh --target 203.0.113.7\n")
}

// cmdHelp prints help for a single command.
func cmdHelp(cmd string) {
	switch cmd {
	case "serve":
		fmt.Println("Usage: jano serve [--config path]")
		fmt.Println("\nStarts the API server with the configured fixers, attack simulators,")
		fmt.Println("LLM backend, and (optionally) the NATS audit bus. Runs until SIGINT.")
	case "status":
		fmt.Println("Usage: jano status [--format table|json|csv] [--host H] [--port P]")
	case "services":
		fmt.Println("Usage: jano services [--format table|json]")
		fmt.Println("\nLists every fixer plugin and the service names it responds to.")
	case "analyze":
		fmt.Println("Usage: jano analyze --service <name> [--path <config file>]")
		fmt.Println("\nRead-only analysis. Reports each rule violation with its severity,")
		fmt.Println("the offending line, and the replacement that fix would write.")
	case "fix":
		fmt.Println("Usage: jano fix --service <name> [--path <file>] [--rules id1,id2] [--no-backup] [--restart]")
		fmt.Println("\nPatches the configuration file. A timestamped backup is written first")
		fmt.Println("unless --no-backup is given. --rules limits the fix to specific rule ids.")
	case "auto":
		fmt.Println("Usage: jano auto --service <name> [--path <file>]")
		fmt.Println("\nAnalyze, apply every fix with a backup, then validate and restart.")
	case "restart":
		fmt.Println("Usage: jano restart --service <name>")
		fmt.Println("\nValidates the current configuration, then walks the restart strategy")
		fmt.Println("chain (systemctl, service, daemon-specific) until one succeeds.")
	case "chat":
		fmt.Println("Usage: jano chat [--session <id>] [--local]")
		fmt.Println("\nInteractive assistant. \"fix <service>\" analyzes, \"yes\" applies,")
		fmt.Println("\"restart\" restarts; anything else goes to the language model.")
		fmt.Println("--local runs against an in-process engine instead of the API server.")
	case "attack":
		fmt.Println("Usage: jano attack --plugin <name> --target <host> [--port N]")
		fmt.Println("\nRuns an attack simulation. Only use against hosts you are authorized")
		fmt.Println("to test.")
	case "logs":
		fmt.Println("Usage: jano logs [--limit N] [--format table|json]")
	case "config":
		fmt.Println("Usage: jano config <show|init> [--config path]")
	default:
		printUsage(os.Stdout)
	}
}
