package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sheepshaver/sheepbug/go/models/trace"
)

func newJournalCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "journal <file>",
		Short: "Print a hook journal written by run --trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "failed to open journal")
			}
			return printJournal(cmd.OutOrStdout(), f)
		},
	}
}

func printJournal(w io.Writer, f io.ReadCloser) error {
	r, err := trace.NewReader(f)
	if err != nil {
		f.Close()
		return err
	}
	defer r.Close()
	decodeSet := "exec"
	if r.Header.CompatDecode != 0 {
		decodeSet = "write"
	}
	fmt.Fprintf(w, "# arch %s, decode set %s\n", r.Header.Arch, decodeSet)
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		fmt.Fprintln(w, rec)
	}
}
