package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"envcheck/internal/artifact"
	"envcheck/internal/cli"
	"envcheck/internal/injector"
	"envcheck/internal/launcher"
	"envcheck/internal/logging"
	"envcheck/internal/resolver"
	"envcheck/internal/scaffold"
	"envcheck/internal/schema"
	"envcheck/internal/validator"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Exit codes; exec failures use the launcher's 126 and 127
const (
	exitOK           = 0
	exitFailure      = 1
	exitSchemaError  = 3
	exitEnvLoadError = 4
)

const defaultMode = "development"

func main() {
	exitCode := run(os.Args[1:], os.Environ(), ".", os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// app carries what every subcommand needs
type app struct {
	environ []string
	dir     string
	stdout  io.Writer
	stderr  io.Writer
	log     *log.Logger
}

// run orchestrates the full execution flow and returns the exit code.
// It is separated from main() to enable testing.
func run(args []string, environ []string, dir string, stdout, stderr io.Writer) int {
	cmd, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		if errors.Is(err, cli.ErrNoSubcommand) {
			cli.PrintUsage(stderr, "")
		}
		return exitFailure
	}

	if cmd.Help {
		cli.PrintUsage(stdout, cmd.Subcommand)
		return exitOK
	}

	a := &app{
		environ: environ,
		dir:     dir,
		stdout:  stdout,
		stderr:  stderr,
		log:     logging.New(stderr, cmd.Verbose, cmd.LogJSON),
	}

	if cmd.Subcommand == cli.SubcommandAdd {
		return a.add(cmd)
	}
	return a.validate(cmd)
}

// validate implements check and run
func (a *app) validate(cmd cli.Command) int {
	schemaPath := resolveSchemaPath(cmd.SchemaPath, a.environ, a.dir)
	mode := resolveMode(cmd.Mode, a.environ)
	fields := log.Fields{"schema": schemaPath, "mode": mode}

	s, err := schema.LoadSchemaFromPath(schemaPath)
	if err != nil {
		a.log.WithFields(fields).WithError(err).Debug("schema load failed")
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(a.stderr, "schema file not found: %s\n", schemaPath)
			return exitSchemaError
		}
		fmt.Fprintf(a.stderr, "failed to parse schema: %v\n", err)
		return exitSchemaError
	}
	a.log.WithFields(fields).WithField("variables", len(s.Variables)).Debug("schema loaded")

	res, err := resolver.Resolve(resolver.Options{
		Dir:      resolveEnvDir(cmd.EnvDir, a.environ, a.dir),
		Mode:     mode,
		Prefixes: resolvePrefixes(cmd.Prefixes, a.environ),
		Declared: s.Names(),
		Environ:  a.environ,
	})
	if err != nil {
		fmt.Fprintln(a.stderr, "Error:", err)
		if errors.Is(err, resolver.ErrReservedMode) || errors.Is(err, resolver.ErrEmptyMode) {
			return exitFailure
		}
		return exitEnvLoadError
	}
	a.log.WithFields(fields).WithField("files", res.Files).Debug("env files loaded")

	ciMode := cmd.CIMode || getEnvBool(a.environ, "ENVCHECK_CI") || getEnvBool(a.environ, "CI")

	values, err := validator.Validate(res.Env, s, mode)
	if err != nil {
		var verrs validator.Errors
		if !errors.As(err, &verrs) {
			fmt.Fprintln(a.stderr, "Error:", err)
			return exitFailure
		}
		a.log.WithFields(fields).WithField("violations", len(verrs)).Debug("validation failed")

		switch {
		case cmd.JSONOutput:
			fmt.Fprintln(a.stdout, formatCheckJSON(false, verrs, schemaPath, mode))
		case ciMode:
			for _, verr := range verrs {
				fmt.Fprintln(a.stderr, formatCIAnnotation(verr, schemaPath))
			}
			fmt.Fprintf(a.stderr, "\n❌ Validation failed: %d error(s)\n", len(verrs))
		default:
			fmt.Fprintln(a.stderr, verrs.Error())
		}
		return exitFailure
	}
	a.log.WithFields(fields).Debug("environment valid")

	art := artifact.Generate(values, s, mode)

	if cmd.ArtifactFile != "" {
		if err := art.WriteToFile(cmd.ArtifactFile); err != nil {
			fmt.Fprintf(a.stderr, "Error: cannot write artifact: %v\n", err)
			return exitFailure
		}
		a.log.WithField("path", cmd.ArtifactFile).Debug("artifact written")
	}

	if cmd.ArtifactStdout {
		jsonBytes, err := art.ToJSON()
		if err != nil {
			fmt.Fprintf(a.stderr, "Error: cannot serialize artifact: %v\n", err)
			return exitFailure
		}
		fmt.Fprintln(a.stdout, string(jsonBytes))
	}

	if cmd.Subcommand == cli.SubcommandCheck {
		if cmd.JSONOutput {
			fmt.Fprintln(a.stdout, formatCheckJSON(true, nil, schemaPath, mode))
		} else if !cmd.ArtifactStdout {
			fmt.Fprintf(a.stdout, "✓ Environment valid (%s)\n", mode)
		}
		return exitOK
	}

	environ := injector.InjectValues(values, a.environ)
	if cmd.InjectEnv != "" {
		environ, err = injector.InjectArtifact(art, environ, cmd.InjectEnv)
		if err != nil {
			fmt.Fprintf(a.stderr, "Error: cannot inject artifact: %v\n", err)
			return exitFailure
		}
	}

	a.log.WithFields(log.Fields{"target": cmd.Target, "args": cmd.Args}).Debug("exec")
	err = launcher.Exec(cmd.Target, cmd.Args, environ)
	code := launcher.ExitCode(err)
	switch code {
	case launcher.ExitNotFound:
		fmt.Fprintf(a.stderr, "Error: command not found: %s\n", cmd.Target)
	case launcher.ExitCannotExecute:
		fmt.Fprintf(a.stderr, "Error: permission denied: %s\n", cmd.Target)
	default:
		fmt.Fprintln(a.stderr, "Error:", err)
	}
	return code
}

// add scaffolds a new variable into the schema and an env file
func (a *app) add(cmd cli.Command) int {
	schemaPath := resolveSchemaPath(cmd.SchemaPath, a.environ, a.dir)
	envDir := resolveEnvDir(cmd.EnvDir, a.environ, a.dir)

	entry := scaffold.Entry{
		Prefix:      resolvePrefixes(cmd.Prefixes, a.environ)[0],
		Name:        cmd.Add.Name,
		Value:       cmd.Add.Value,
		Description: cmd.Add.Description,
		Type:        cmd.Add.Type,
		Required:    !cmd.Add.Optional,
		Default:     cmd.Add.Default,
		HasDefault:  cmd.Add.DefaultSet,
		Allowed:     cmd.Add.Allowed,
		EnvFile:     cmd.Add.EnvFile,
	}
	if err := entry.Validate(); err != nil {
		fmt.Fprintln(a.stderr, "Error:", err)
		return exitFailure
	}

	if err := scaffold.AddToSchema(schemaPath, entry); err != nil {
		fmt.Fprintln(a.stderr, "Error:", err)
		if errors.Is(err, scaffold.ErrVariableExists) {
			return exitFailure
		}
		return exitSchemaError
	}
	a.log.WithFields(log.Fields{"schema": schemaPath, "variable": entry.Name}).Debug("schema updated")

	envPath, err := scaffold.AppendEnvVariable(envDir, entry)
	if err != nil {
		fmt.Fprintln(a.stderr, "Error:", err)
		return exitEnvLoadError
	}

	fmt.Fprintf(a.stdout, "✓ Added %s to %s and %s\n", entry.Name, schemaPath, envPath)
	return exitOK
}

// resolveSchemaPath picks --schema, then ENVCHECK_SCHEMA, then the default
// file in dir. Relative paths are taken from dir.
func resolveSchemaPath(flagValue string, environ []string, dir string) string {
	if flagValue != "" {
		return resolvePath(flagValue, dir)
	}
	if path, ok := resolver.Lookup(environ, "ENVCHECK_SCHEMA"); ok && path != "" {
		return resolvePath(path, dir)
	}
	return filepath.Join(dir, schema.DefaultFileName)
}

// resolveMode picks --mode, then ENVCHECK_MODE, then development
func resolveMode(flagValue string, environ []string) string {
	if flagValue != "" {
		return flagValue
	}
	if mode, ok := resolver.Lookup(environ, "ENVCHECK_MODE"); ok && mode != "" {
		return mode
	}
	return defaultMode
}

// resolveEnvDir picks --env-dir, then ENVCHECK_ENV_DIR, then dir
func resolveEnvDir(flagValue string, environ []string, dir string) string {
	if flagValue != "" {
		return resolvePath(flagValue, dir)
	}
	if envDir, ok := resolver.Lookup(environ, "ENVCHECK_ENV_DIR"); ok && envDir != "" {
		return resolvePath(envDir, dir)
	}
	return dir
}

// resolvePrefixes picks --prefix, then ENVCHECK_PREFIX, then VITE_.
// The result is never empty; [""] keeps every variable.
func resolvePrefixes(flagValue []string, environ []string) []string {
	if flagValue != nil {
		return flagValue
	}
	if prefix, ok := resolver.Lookup(environ, "ENVCHECK_PREFIX"); ok {
		return strings.Split(prefix, ",")
	}
	return []string{scaffold.DefaultPrefix}
}

func resolvePath(path, dir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// getEnvBool checks if an environment variable is set to a truthy value
func getEnvBool(environ []string, name string) bool {
	val, ok := resolver.Lookup(environ, name)
	if !ok {
		return false
	}
	val = strings.ToLower(val)
	return val == "true" || val == "1" || val == "yes"
}

// formatCIAnnotation formats a validation error as GitHub Actions annotation
func formatCIAnnotation(err validator.ValidationError, schemaPath string) string {
	return fmt.Sprintf("::error file=%s::%s", filepath.Base(schemaPath), validator.FormatError(err))
}

type checkJSON struct {
	Valid      bool             `json:"valid"`
	Mode       string           `json:"mode"`
	SchemaPath string           `json:"schemaPath"`
	Errors     []checkJSONError `json:"errors"`
}

type checkJSONError struct {
	Variable string `json:"variable"`
	Kind     string `json:"kind"`
	Reason   string `json:"reason"`
}

// formatCheckJSON formats check results as a single JSON line
func formatCheckJSON(valid bool, errs validator.Errors, schemaPath, mode string) string {
	out := checkJSON{
		Valid:      valid,
		Mode:       mode,
		SchemaPath: schemaPath,
		Errors:     make([]checkJSONError, 0, len(errs)),
	}
	for _, err := range errs {
		out.Errors = append(out.Errors, checkJSONError{
			Variable: err.Variable,
			Kind:     kindName(err),
			Reason:   err.Reason,
		})
	}
	data, _ := json.Marshal(out)
	return string(data)
}

func kindName(err error) string {
	switch {
	case errors.Is(err, validator.ErrMissingRequired):
		return "required"
	case errors.Is(err, validator.ErrTypeMismatch):
		return "type"
	case errors.Is(err, validator.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, validator.ErrDisallowedValue):
		return "allowed"
	default:
		return "unknown"
	}
}
