package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func (a *app) print(cmd *cobra.Command, v any) error {
	if a.opts.Output == outputYAML {
		return writeYAML(cmd.OutOrStdout(), v)
	}
	return writeJSON(cmd.OutOrStdout(), v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return withCode(exitIO, fmt.Errorf("json encode: %w", err))
	}
	return nil
}

// writeYAML goes through JSON first so both formats share field names.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return withCode(exitIO, fmt.Errorf("json encode: %w", err))
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return withCode(exitIO, fmt.Errorf("yaml decode: %w", err))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return withCode(exitIO, fmt.Errorf("yaml encode: %w", err))
	}
	return enc.Close()
}
