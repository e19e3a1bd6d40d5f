package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/formqc/pkg/schema"
)

func newLintCmd() *cobra.Command {
	var pkField string

	cmd := &cobra.Command{
		Use:   "lint <rules-file>",
		Short: "Check a rule file for unknown rules and malformed arguments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schema.ParseFile(args[0])
			if err != nil {
				return err
			}
			if pkField != "" {
				fs, ok := s.Field(pkField)
				if !ok {
					return fmt.Errorf("schema does not define primary key field %q", pkField)
				}
				if !fs.Required {
					return fmt.Errorf("primary key field %q must be declared required", pkField)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d fields, ok\n", args[0], s.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&pkField, "pk", "", "also check the primary key declaration")
	return cmd
}
