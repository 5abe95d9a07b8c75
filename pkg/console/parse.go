package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/teststand/pkg/command"
)

// ParseValve parses a valve index or "all".
func ParseValve(s string) (byte, error) {
	if strings.EqualFold(s, "all") {
		return command.ParamAll, nil
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n >= uint64(command.ParamAll) {
		return 0, fmt.Errorf("invalid valve %q", s)
	}
	return byte(n), nil
}

// ParsePercent parses a valve position 0-100.
func ParsePercent(s string) (byte, error) {
	n, err := strconv.ParseUint(strings.TrimSuffix(s, "%"), 10, 8)
	if err != nil || n > 100 {
		return 0, fmt.Errorf("invalid percent %q", s)
	}
	return byte(n), nil
}

// ParseCommand builds a command from shell arguments:
//
//	open VALVE|all
//	close VALVE|all
//	set VALVE|all PERCENT
//	ignite
//	raw TARGET TYPE [PARAM...]
func ParseCommand(args []string) (command.Command, error) {
	var cmd command.Command
	if len(args) == 0 {
		return cmd, fmt.Errorf("command expected")
	}
	name, args := args[0], args[1:]
	need := func(n int, usage string) error {
		if len(args) != n {
			return fmt.Errorf("usage: %s %s", name, usage)
		}
		return nil
	}
	switch name {
	case "open", "close":
		if err := need(1, "VALVE|all"); err != nil {
			return cmd, err
		}
		valve, err := ParseValve(args[0])
		if err != nil {
			return cmd, err
		}
		typ := command.ServoOpen
		if name == "close" {
			typ = command.ServoClose
		}
		return command.Servo(typ, valve), nil
	case "set":
		if err := need(2, "VALVE|all PERCENT"); err != nil {
			return cmd, err
		}
		valve, err := ParseValve(args[0])
		if err != nil {
			return cmd, err
		}
		pct, err := ParsePercent(args[1])
		if err != nil {
			return cmd, err
		}
		return command.Servo(command.ServoSetPosition, valve, pct), nil
	case "ignite":
		if err := need(0, ""); err != nil {
			return cmd, err
		}
		return command.Ignite(), nil
	case "raw":
		if len(args) < 2 || len(args) > 2+command.NumParams {
			return cmd, fmt.Errorf("usage: raw TARGET TYPE [PARAM...]")
		}
		var b [command.Size]byte
		for i, s := range args {
			v, err := strconv.ParseUint(s, 0, 8)
			if err != nil {
				return cmd, fmt.Errorf("invalid byte %q", s)
			}
			b[i] = byte(v)
		}
		return command.Decode(b[:])
	}
	return cmd, fmt.Errorf("unknown command %q", name)
}
