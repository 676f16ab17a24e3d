package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

func printSuccess(format string, args ...interface{}) {
	fmt.Fprintln(stderr, successColor.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintln(stderr, warningColor.Sprint("Warning: ")+fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...interface{}) {
	fmt.Fprintln(stderr, infoColor.Sprintf(format, args...))
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
