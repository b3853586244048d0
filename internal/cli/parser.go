package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pborman/getopt/v2"
)

// ProgramName is the name used in usage output
const ProgramName = "envcheck"

// ErrNoCommand is returned when no command is provided after "run"
var ErrNoCommand = errors.New("no command provided: usage: envcheck run [flags] <command> [args...]")

// ErrNoSubcommand is returned when the subcommand is missing or unknown
var ErrNoSubcommand = errors.New("missing subcommand: usage: envcheck <check|run|add> [flags] [command] [args...]")

// ErrInvalidFlag is returned when a flag is unknown or lacks its value
var ErrInvalidFlag = errors.New("invalid flag")

// ErrUnexpectedArgs is returned when check or add receive positional arguments
var ErrUnexpectedArgs = errors.New("unexpected arguments")

// Subcommand represents the CLI subcommand
type Subcommand string

const (
	SubcommandCheck Subcommand = "check"
	SubcommandRun   Subcommand = "run"
	SubcommandAdd   Subcommand = "add"
)

// Command represents the parsed CLI input
type Command struct {
	Subcommand Subcommand
	Target     string   // only for run
	Args       []string // only for run

	SchemaPath string   // --schema <path>
	Mode       string   // --mode <mode>
	EnvDir     string   // --env-dir <dir>
	Prefixes   []string // --prefix <a,b>; nil when not given

	JSONOutput bool // --json
	CIMode     bool // --ci
	Verbose    bool // --verbose
	LogJSON    bool // --log-json
	Help       bool // --help

	ArtifactFile   string // --artifact-file <path>
	ArtifactStdout bool   // --artifact-stdout
	InjectEnv      string // --inject-env <varname>

	Add AddOptions
}

// AddOptions holds the flags of the add subcommand
type AddOptions struct {
	Name        string
	Value       string
	Description string
	Type        string
	Optional    bool
	Allowed     []string
	Default     string
	DefaultSet  bool
	EnvFile     string
}

// flagSet binds every flag of sub to cmd. The returned func copies values
// that need post-processing once parsing is done.
func flagSet(sub Subcommand, cmd *Command) (*getopt.Set, func()) {
	s := getopt.New()
	s.SetProgram(ProgramName + " " + string(sub))

	s.FlagLong(&cmd.Help, "help", 'h', "print this help message")
	s.FlagLong(&cmd.SchemaPath, "schema", 's', "schema file (default ./envschema.yaml)", "path")
	s.FlagLong(&cmd.Verbose, "verbose", 'v', "log debug details")
	s.FlagLong(&cmd.LogJSON, "log-json", 0, "log as JSON")
	s.FlagLong(&cmd.EnvDir, "env-dir", 'd', "directory holding the .env files", "dir")

	var prefix string
	prefixOpt := s.FlagLong(&prefix, "prefix", 'p', "comma separated variable prefixes (default VITE_)", "list")

	var allowed string
	finish := func() {
		if prefixOpt.Seen() {
			cmd.Prefixes = strings.Split(prefix, ",")
		}
	}

	switch sub {
	case SubcommandCheck, SubcommandRun:
		s.FlagLong(&cmd.Mode, "mode", 'm', "mode to validate (default development)", "mode")
		s.FlagLong(&cmd.JSONOutput, "json", 0, "report errors as JSON")
		s.FlagLong(&cmd.CIMode, "ci", 0, "report errors as CI annotations")
		s.FlagLong(&cmd.ArtifactFile, "artifact-file", 0, "write the config artifact to path", "path")
		s.FlagLong(&cmd.ArtifactStdout, "artifact-stdout", 0, "print the config artifact")
		if sub == SubcommandRun {
			s.FlagLong(&cmd.InjectEnv, "inject-env", 0, "pass the config artifact in this variable", "name")
			s.SetParameters("<command> [args...]")
		}
	case SubcommandAdd:
		s.FlagLong(&cmd.Add.Name, "name", 'n', "variable name", "NAME")
		s.FlagLong(&cmd.Add.Value, "value", 0, "value written to the env file", "value")
		s.FlagLong(&cmd.Add.Description, "description", 0, "what the variable is for", "text")
		s.FlagLong(&cmd.Add.Type, "type", 't', "string, number or boolean (default string)", "type")
		s.FlagLong(&cmd.Add.Optional, "optional", 0, "do not mark the variable required")
		s.FlagLong(&allowed, "allowed", 0, "comma separated allowed values", "list")
		defaultOpt := s.FlagLong(&cmd.Add.Default, "default", 0, "default value", "value")
		s.FlagLong(&cmd.Add.EnvFile, "env-file", 0, "env file to append to (default .env)", "file")
		prev := finish
		finish = func() {
			prev()
			if allowed != "" {
				cmd.Add.Allowed = strings.Split(allowed, ",")
			}
			cmd.Add.DefaultSet = defaultOpt.Seen()
		}
	}
	return s, finish
}

// ParseArgs parses CLI arguments into a Command.
// It expects args to be os.Args[1:] (excluding the program name).
// Option parsing stops at the first non-flag argument, which becomes the
// target of run.
func ParseArgs(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, ErrNoSubcommand
	}

	sub := Subcommand(args[0])
	switch sub {
	case SubcommandCheck, SubcommandRun, SubcommandAdd:
	default:
		return Command{}, ErrNoSubcommand
	}

	cmd := Command{Subcommand: sub, Add: AddOptions{Type: "string", EnvFile: ".env"}}
	s, finish := flagSet(sub, &cmd)
	// getopt treats args[0] as the program name
	if err := s.Getopt(args, nil); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}
	finish()

	if cmd.Help {
		return cmd, nil
	}

	rest := s.Args()
	if sub != SubcommandRun {
		if len(rest) > 0 {
			return Command{}, fmt.Errorf("%w: %s", ErrUnexpectedArgs, strings.Join(rest, " "))
		}
		return cmd, nil
	}

	if len(rest) == 0 {
		return Command{}, ErrNoCommand
	}
	cmd.Target = rest[0]
	if len(rest) > 1 {
		cmd.Args = rest[1:]
	}
	return cmd, nil
}

// PrintUsage writes the usage of sub to w. An empty sub prints the overview.
func PrintUsage(w io.Writer, sub Subcommand) {
	switch sub {
	case SubcommandCheck, SubcommandRun, SubcommandAdd:
		var cmd Command
		s, _ := flagSet(sub, &cmd)
		s.PrintUsage(w)
	default:
		fmt.Fprintf(w, "Usage: %s <command> [flags]\n\n", ProgramName)
		fmt.Fprintln(w, "Commands:")
		fmt.Fprintln(w, "  check   validate the environment against the schema")
		fmt.Fprintln(w, "  run     validate, then exec a command with the validated values")
		fmt.Fprintln(w, "  add     add a variable to the schema and an env file")
		fmt.Fprintf(w, "\nRun '%s <command> --help' for the flags of a command.\n", ProgramName)
	}
}
