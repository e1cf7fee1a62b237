package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/effectus/sig/compiler"
	"github.com/effectus/sig/runtime"
	"github.com/effectus/sig/schema/signature"
)

func newCompileCommand() *Command {
	compileCmd := &Command{
		Name:        "compile",
		Description: "Compile a signature declaration and print its canonical form",
		FlagSet:     flag.NewFlagSet("compile", flag.ExitOnError),
	}

	classNames := compileCmd.FlagSet.String("classes", "", "Comma-separated list of class names signatures may refer to")

	compileCmd.Run = func() error {
		args := compileCmd.FlagSet.Args()
		if len(args) < 1 {
			return fmt.Errorf("no declaration specified")
		}

		canonical, err := compileDeclaration(strings.Join(args, " "), splitCommaList(*classNames))
		if err != nil {
			return err
		}
		fmt.Println(canonical)
		return nil
	}

	return compileCmd
}

func compileDeclaration(src string, classNames []string) (string, error) {
	classes := runtime.NewRegistry()
	for _, name := range classNames {
		if _, err := classes.Define(name, nil); err != nil {
			return "", err
		}
	}

	decl, err := compiler.NewCompiler(compiler.ClassResolver(classes)).Compile(src)
	if err != nil {
		return "", err
	}
	return signature.New(decl.Args, decl.Result).String(), nil
}
