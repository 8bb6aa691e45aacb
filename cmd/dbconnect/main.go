package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dbconnect/dbconnect/internal/config"
	"github.com/dbconnect/dbconnect/internal/connector"
	"github.com/dbconnect/dbconnect/internal/server"
	"github.com/dbconnect/dbconnect/internal/version"
)

const (
	usageText = `dbconnect - run commands and stored procedures against a configured database

Usage:
  dbconnect <command> [options]

Commands:
  demo       Run the Users walkthrough against the default connection
  exec       Execute command text and print the result table
  call       Execute a stored procedure with Name=Value parameters
  serve      Start the HTTP execute API
  version    Print version information
  help       Display this help message

Configuration:
  DBCONNECT_CONFIG             JSON file with named connection strings
  DBCONNECT_CONNECTION_STRING  Single connection string when no file is set
  DBCONNECT_PROVIDER           Provider for that connection string (postgres, mysql)
  DBCONNECT_BIND_HOST          Host the HTTP API binds to (default 127.0.0.1)
  DBCONNECT_PORT               Port the HTTP API listens on (default 5180)

Examples:
  dbconnect demo
  dbconnect exec "SELECT COUNT(*) FROM Users"
  dbconnect exec -c Reporting "SELECT * FROM Users"
  dbconnect call -nonquery AddUser UserId=10 FirstName=Tester
  dbconnect serve
`
)

var errExecutionFailed = errors.New("execution failed")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "demo", "exec", "call", "serve":
		cfg, err := config.LoadFromEnv()
		if err != nil {
			log.Printf("[FATAL] Failed to load configuration: %v", err)
			os.Exit(1)
		}
		if err := run(command, cfg, os.Args[2:], os.Stdout); err != nil {
			if !errors.Is(err, errExecutionFailed) {
				log.Printf("[FATAL] %v", err)
			}
			os.Exit(1)
		}
	case "version":
		printVersion()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func run(command string, cfg *config.Config, args []string, out io.Writer) error {
	switch command {
	case "demo":
		runDemo(cfg, out)
		return nil
	case "exec":
		return runExec(cfg, args, out)
	case "call":
		return runCall(cfg, args, out)
	case "serve":
		return runServe(cfg)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func runExec(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	fs.SetOutput(out)
	name := fs.String("c", "", "connection string name (default: first configured)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("exec requires command text")
	}

	c := connector.Open(cfg, *name)
	defer c.Close()

	c.ExecuteText(strings.Join(fs.Args(), " "))
	if c.HasError() {
		fmt.Fprintln(out, c.ErrorMessage())
		return errExecutionFailed
	}

	printResult(out, c)
	return nil
}

func runCall(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.SetOutput(out)
	name := fs.String("c", "", "connection string name (default: first configured)")
	nonQuery := fs.Bool("nonquery", false, "report the affected row count instead of reading rows")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("call requires a procedure name")
	}

	params, err := parseParameters(fs.Args()[1:])
	if err != nil {
		return err
	}

	mode := connector.ModeRows
	if *nonQuery {
		mode = connector.ModeNonQuery
	}

	c := connector.Open(cfg, *name)
	defer c.Close()

	c.ExecuteStoredProcedure(fs.Arg(0), params, mode)
	if c.HasError() {
		fmt.Fprintln(out, c.ErrorMessage())
		return errExecutionFailed
	}

	if mode == connector.ModeNonQuery {
		fmt.Fprintf(out, "Rows affected: %d\n", c.ScalarInt())
		return nil
	}
	printResult(out, c)
	return nil
}

// parseParameters turns Name=Value arguments into ordered parameters.
func parseParameters(args []string) ([]connector.Parameter, error) {
	params := make([]connector.Parameter, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected Name=Value", arg)
		}
		params = append(params, connector.Parameter{Name: name, Value: value})
	}
	return params, nil
}

func printResult(out io.Writer, c *connector.Connector) {
	table := c.Table()

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.ColumnNames(), "\t"))
	for _, row := range table.Rows {
		cells := make([]string, row.Len())
		for i, v := range row.Values() {
			cells[i] = v.String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	fmt.Fprintf(out, "(%d rows)\n", table.RowCount())
	fmt.Fprintf(out, "Scalar: string=%q int=%d decimal=%s\n", c.ScalarString(), c.ScalarInt(), c.ScalarDecimal())
}

func runServe(cfg *config.Config) error {
	log.Printf("[INFO] Starting %s", version.Get())
	log.Printf("[INFO] Connection strings: %s", strings.Join(cfg.Names(), ", "))

	httpServer := server.NewServer(server.ConnectorOpener(cfg))

	log.Printf("[INFO] Starting HTTP server...")
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	log.Printf("[INFO] HTTP API: http://%s/v1/execute", httpServer.Addr())
	log.Printf("[INFO] Press Ctrl+C to stop")

	httpServer.WaitForShutdown()

	log.Printf("[INFO] Shutdown complete")
	return nil
}

func printVersion() {
	info := version.Get()
	fmt.Println(info.Full())
}

func printUsage() {
	fmt.Print(usageText)
}
