package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/oy3o/podio/schema"
	"github.com/spf13/cobra"
)

// layoutCmd represents the layout command
var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the fields and directives of every record",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("schema")
		sc, err := schema.Load(path)
		if err != nil {
			return err
		}
		return writeLayout(cmd.OutOrStdout(), sc)
	},
}

func init() {
	layoutCmd.Flags().StringP("schema", "s", "", "Schema file")
	_ = layoutCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(layoutCmd)
}

func writeLayout(w io.Writer, sc *schema.Schema) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, rt := range sc.Records {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s:\n", rt.Name)
		for _, fd := range rt.Fields {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", fd.Name, fieldType(fd), directives(fd))
		}
	}
	return tw.Flush()
}

func fieldType(fd schema.FieldDef) string {
	switch {
	case fd.Len != "":
		return fmt.Sprintf("%s(len=%s)", fd.Type, fd.Len)
	case fd.Count != "":
		return fmt.Sprintf("%s(count=%s)", fd.Type, fd.Count)
	}
	return fd.Type
}

func directives(fd schema.FieldDef) string {
	var parts []string
	if s := fd.Shared.String(); s != "" {
		parts = append(parts, s)
	}
	if s := fd.Encode.String(); s != "" {
		parts = append(parts, "enc["+s+"]")
	}
	if s := fd.Decode.String(); s != "" {
		parts = append(parts, "dec["+s+"]")
	}
	return strings.Join(parts, " ")
}
