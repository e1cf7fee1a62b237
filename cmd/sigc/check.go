package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/effectus/sig/lint"
	"github.com/effectus/sig/loader"
	"github.com/effectus/sig/runtime"
)

func newCheckCommand() *Command {
	checkCmd := &Command{
		Name:        "check",
		Description: "Parse and lint signature manifests",
		FlagSet:     flag.NewFlagSet("check", flag.ExitOnError),
	}

	classNames := checkCmd.FlagSet.String("classes", "", "Comma-separated list of class names signatures may refer to")
	format := checkCmd.FlagSet.String("format", "text", "Output format: text or json")
	failOnWarn := checkCmd.FlagSet.Bool("fail-on-warn", false, "Return non-zero exit code when warnings are present")
	unsafeMode := checkCmd.FlagSet.String("unsafe", "warn", "Unsafe expression policy: warn, error, ignore")

	checkCmd.Run = func() error {
		files := checkCmd.FlagSet.Args()
		if len(files) < 1 {
			return fmt.Errorf("no input files specified")
		}

		mode, err := lint.ParseUnsafeMode(*unsafeMode)
		if err != nil {
			return err
		}

		issues, err := runCheck(files, splitCommaList(*classNames), lint.LintOptions{
			UnsafeMode:  mode,
			SkipTargets: true,
		})
		if err != nil {
			return err
		}

		switch strings.ToLower(*format) {
		case "json":
			encoded, err := json.MarshalIndent(issues, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding issues: %w", err)
			}
			fmt.Println(string(encoded))
		case "text":
			if len(issues) > 0 {
				fmt.Println(formatIssuesText(issues))
			}
		default:
			return fmt.Errorf("unsupported format: %s", *format)
		}

		hadWarn := len(issues) > 0
		if lint.HasErrors(issues) || (*failOnWarn && hadWarn) {
			return fmt.Errorf("check failed")
		}
		return nil
	}

	return checkCmd
}

// runCheck lints each manifest. Class names only need to resolve as types,
// so each is registered as an empty class.
func runCheck(files, classNames []string, options lint.LintOptions) ([]lint.Issue, error) {
	classes := runtime.NewRegistry()
	for _, name := range classNames {
		if _, err := classes.Define(name, nil); err != nil {
			return nil, err
		}
	}

	issues := make([]lint.Issue, 0)
	for _, file := range files {
		m, err := loader.LoadFile(file)
		if err != nil {
			issues = append(issues, issueFromError(file, err))
			continue
		}
		issues = append(issues, lint.LintManifest(m, classes, nil, options)...)
	}
	return issues, nil
}
