//go:build unicorn

package cmd

import "github.com/sheepshaver/sheepbug/go/cpu/unicorn"

func init() {
	backends["unicorn"] = func() (machine, error) {
		c, err := unicorn.NewCpu()
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
