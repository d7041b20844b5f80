package lua

import (
	"fmt"
	"strings"

	"github.com/lunixbochs/luaish"
	"github.com/mgutz/ansi"
)

var errColor = ansi.ColorFunc("red+b")

func prettydump(lv []lua.LValue, implicit bool, outer bool, seen map[lua.LValue]bool) []string {
	pretty := make([]string, len(lv))
	for i, v := range lv {
		switch s := v.(type) {
		case *lua.LTable:
			// seen[v] is used to skip recursive table references
			if seen[v] {
				pretty[i] = "{<recursion>}"
				continue
			}
			seen[v] = true

			table := make([]string, 0, s.Len())
			idx := 1
			s.ForEach(func(k, v lua.LValue) {
				tmp := prettydump([]lua.LValue{k, v}, implicit, false, seen)
				if n, ok := k.(lua.LInt); ok && int(n) == idx {
					idx++
					table = append(table, tmp[1])
				} else {
					table = append(table, strings.Join(tmp, " = "))
				}
			})

			seen[v] = false
			sep := ", "
			if outer {
				sep = ",\n "
			}
			pretty[i] = "{" + strings.Join(table, sep) + "}"
		case lua.LFloat:
			pretty[i] = fmt.Sprintf("%g", float64(s))
		case lua.LInt:
			// addresses read best in hex, small counts in decimal
			n := uint64(s)
			if n < 10 {
				pretty[i] = fmt.Sprintf("%d", n)
			} else if n > 0x10000 {
				pretty[i] = fmt.Sprintf("%#x", n)
			} else {
				pretty[i] = fmt.Sprintf("%#x(%d)", n, n)
			}
		case lua.LString:
			if implicit {
				pretty[i] = fmt.Sprintf("%q", string(s))
			} else {
				pretty[i] = string(s)
			}
		default:
			pretty[i] = v.String()
		}
	}
	return pretty
}

// PrettyDump formats values for display. Implicit values (echoed results
// rather than print arguments) have their strings quoted.
func PrettyDump(lv []lua.LValue, implicit bool) []string {
	return prettydump(lv, implicit, true, make(map[lua.LValue]bool))
}

// PrintError writes err to the host output, in red when color is on.
func (h *Host) PrintError(err error) {
	msg := err.Error()
	if h.color {
		msg = errColor(msg)
	}
	h.Println(msg)
}
