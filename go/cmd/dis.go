package cmd

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sheepshaver/sheepbug/go/cpu/ppc"
	"github.com/sheepshaver/sheepbug/go/loader"
	"github.com/sheepshaver/sheepbug/go/models/cpu"
)

var (
	colorAddr  = color.New(color.FgCyan)
	colorBytes = color.New(color.FgHiBlack)
	colorInstr = color.New(color.FgYellow, color.Bold)
	colorEntry = color.New(color.FgGreen, color.Bold)
)

func newDisCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "dis <image>",
		Short: "Disassemble the executable segments of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			color.NoColor = !cfg.Color
			l, err := loader.LoadFile(args[0], loader.Options{Base: cfg.Mem.Base, Entry: cfg.Entry})
			if err != nil {
				return err
			}
			return disImage(cmd.OutOrStdout(), l)
		},
	}
}

func disImage(w io.Writer, l loader.Loader) error {
	segs, err := l.Segments()
	if err != nil {
		return err
	}
	entry := uint32(l.Entry())
	for _, seg := range segs {
		if seg.Prot&cpu.PROT_EXEC == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", colorAddr.Sprintf("%#x", seg.Addr))
		for off := 0; off+4 <= len(seg.Data); off += 4 {
			addr := uint32(seg.Addr) + uint32(off)
			op := binary.BigEndian.Uint32(seg.Data[off:])
			ins := ppc.Dis(op, addr)
			mark := "  "
			if addr == entry {
				mark = colorEntry.Sprint("> ")
			}
			fmt.Fprintf(w, "%s%s  %s  %s\n", mark,
				colorAddr.Sprintf("%08x", addr),
				colorBytes.Sprintf("%08x", op),
				colorInstr.Sprint(ins.String()))
		}
	}
	return nil
}
