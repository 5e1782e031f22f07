package cmd

import (
	"bufio"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/oy3o/podio"
	"github.com/oy3o/podio/schema"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type encodeOptions struct {
	schema     string
	typeName   string
	zstd       bool
	bufferSize int
}

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode <input.yaml>",
	Short: "Encode a YAML record to its binary form",
	Long: `Encode a YAML record, as printed by decode, to its binary form.

Example:
  podump encode --schema fs.yaml --type superblock -o sb.bin sb.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o := encodeOptions{zstd: useZstd(cmd), bufferSize: cfg.BufferSize}
		o.schema, _ = cmd.Flags().GetString("schema")
		o.typeName, _ = cmd.Flags().GetString("type")
		out, _ := cmd.Flags().GetString("output")
		return encodeFile(out, args[0], o)
	},
}

func init() {
	encodeCmd.Flags().StringP("schema", "s", "", "Schema file")
	encodeCmd.Flags().StringP("type", "t", "", "Record type, the first record of the schema by default")
	encodeCmd.Flags().StringP("output", "o", "", "Output file")
	encodeCmd.Flags().Bool("zstd", false, "Compress the output with zstd")
	_ = encodeCmd.MarkFlagRequired("schema")
	_ = encodeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(encodeCmd)
}

func encodeFile(output, input string, o encodeOptions) error {
	sc, err := schema.Load(o.schema)
	if err != nil {
		return err
	}
	rt, err := sc.Lookup(o.typeName)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	var rec schema.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return errors.Wrapf(err, "parse %s", input)
	}

	f, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer f.Close()

	if err := writeRecord(f, rt, &rec, o); err != nil {
		return errors.WithMessagef(err, "encode %s", input)
	}
	return f.Close()
}

// writeRecord encodes rec to w, compressing it when asked.
func writeRecord(w io.Writer, rt *schema.RecordType, rec *schema.Record, o encodeOptions) error {
	bw := bufio.NewWriterSize(w, o.bufferSize)
	var dst io.Writer = bw
	var zw *zstd.Encoder
	if o.zstd {
		var err error
		if zw, err = zstd.NewWriter(bw); err != nil {
			return errors.Wrap(err, "zstd")
		}
		dst = zw
	}

	t := podio.NewTracker(dst)
	if err := rt.Encode(t, rec); err != nil {
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return err
		}
	}
	pos, _ := t.Tell()
	slog.Debug("encoded record", "type", rt.Name, "size", pos, "zstd", o.zstd)
	return bw.Flush()
}
