package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
)

// printJSON writes v as indented JSON, optionally piped through a jq
// expression first. Filter output prints one value per line, with bare
// strings printed raw the way jq -r does.
func printJSON(w io.Writer, v any, filter string) error {
	if filter == "" {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	query, err := gojq.Parse(filter)
	if err != nil {
		return fmt.Errorf("parsing jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("compiling jq expression: %w", err)
	}

	// gojq operates on plain maps and slices, so round-trip through JSON.
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return err
	}

	iter := code.Run(input)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := out.(error); ok {
			return fmt.Errorf("running jq expression: %w", err)
		}
		if s, ok := out.(string); ok {
			fmt.Fprintln(w, s)
			continue
		}
		line, err := json.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(line))
	}
	return nil
}
