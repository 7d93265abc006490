//go:build windows

package player

import (
	"errors"
	"os"
)

var errNoSignals = errors.New("pause and resume are not supported on windows")

func suspendProcess(*os.Process) error  { return errNoSignals }
func continueProcess(*os.Process) error { return errNoSignals }
