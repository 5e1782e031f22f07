package cmd

import (
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/oy3o/podio"
	"github.com/oy3o/podio/schema"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type decodeOptions struct {
	schema     string
	typeName   string
	offset     int64
	length     int64 // negative reads to the end of the input
	zstd       bool
	bufferSize int
}

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <input>",
	Short: "Decode one record and print it as YAML",
	Long: `Decode one record of a binary file and print it as YAML.

The record starts at --offset and may not read past --length bytes. With
--zstd the offset and length address the decompressed data.

Example:
  podump decode --schema fs.yaml --type superblock --offset 1024 disk.img`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o := decodeOptions{zstd: useZstd(cmd), bufferSize: cfg.BufferSize}
		o.schema, _ = cmd.Flags().GetString("schema")
		o.typeName, _ = cmd.Flags().GetString("type")
		o.offset, _ = cmd.Flags().GetInt64("offset")
		o.length, _ = cmd.Flags().GetInt64("length")
		return decodeFile(cmd.OutOrStdout(), args[0], o)
	},
}

func init() {
	decodeCmd.Flags().StringP("schema", "s", "", "Schema file")
	decodeCmd.Flags().StringP("type", "t", "", "Record type, the first record of the schema by default")
	decodeCmd.Flags().Int64("offset", 0, "Offset of the record in the input")
	decodeCmd.Flags().Int64("length", -1, "Bytes available to the record")
	decodeCmd.Flags().Bool("zstd", false, "Input is zstd compressed")
	_ = decodeCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(decodeCmd)
}

func decodeFile(w io.Writer, input string, o decodeOptions) error {
	sc, err := schema.Load(o.schema)
	if err != nil {
		return err
	}
	rt, err := sc.Lookup(o.typeName)
	if err != nil {
		return err
	}
	if o.offset < 0 {
		return errors.Errorf("negative offset %d", o.offset)
	}
	end := int64(math.MaxInt64)
	if o.length >= 0 && o.length <= math.MaxInt64-o.offset {
		end = o.offset + o.length
	}

	f, err := os.Open(input)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer f.Close()

	var src io.Reader
	if o.zstd {
		z, err := podio.NewZstdReader(f)
		if err != nil {
			return errors.Wrap(err, "zstd")
		}
		defer z.Close()
		src = podio.NewRegion(podio.NewRewindAbsolute(z), o.offset, end)
	} else {
		// Seeking a file past its end succeeds, so the window stops there.
		st, err := f.Stat()
		if err != nil {
			return errors.Wrap(err, "stat input")
		}
		end = min(end, st.Size())
		if o.offset > end {
			return errors.Errorf("offset %d is past the end of %s (%d bytes)", o.offset, input, end)
		}
		src = podio.NewRegion(f, o.offset, end)
	}
	r := podio.NewBufSeekerSize(src, o.bufferSize)

	rec, err := rt.Decode(r)
	if err != nil {
		return errors.WithMessagef(err, "decode %s at offset %d", input, o.offset)
	}
	if n, err := podio.Tell(r); err == nil {
		slog.Debug("decoded record", "type", rt.Name, "offset", o.offset, "size", n)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rec); err != nil {
		return err
	}
	return enc.Close()
}
