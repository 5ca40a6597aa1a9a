//go:build linux

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"devicecode-muic/bus"
	"devicecode-muic/services/muic"
	"devicecode-muic/types"

	"github.com/google/shlex"
)

var (
	errUsage   = errors.New("usage: <verb> [value]")
	errUnknown = errors.New("unknown verb")
)

var verbs = map[string]bool{
	muic.CtrlAFCDisabled: true,
	muic.CtrlUARTEnabled: true,
	muic.CtrlUSBPath:     true,
	muic.CtrlUARTPath:    true,
	muic.CtrlVoltageTier: true,
	muic.CtrlOTGTest:     true,
	muic.CtrlAudioPath:   true,
	muic.CtrlState:       false,
}

// aliases for the sysfs attribute names.
var aliases = map[string]string{
	"afc":      muic.CtrlAFCDisabled,
	"uart_en":  muic.CtrlUARTEnabled,
	"usb_sel":  muic.CtrlUSBPath,
	"uart_sel": muic.CtrlUARTPath,
	"tier":     muic.CtrlVoltageTier,
	"otg":      muic.CtrlOTGTest,
	"audio":    muic.CtrlAudioPath,
}

// parseCommand turns one console line into a control verb and payload.
// An empty verb means a blank line.
func parseCommand(line string) (verb string, payload any, err error) {
	args, err := shlex.Split(line)
	if err != nil {
		return "", nil, err
	}
	if len(args) == 0 {
		return "", nil, nil
	}
	verb = strings.ToLower(args[0])
	if a, ok := aliases[verb]; ok {
		verb = a
	}
	needsValue, ok := verbs[verb]
	if !ok {
		return "", nil, errUnknown
	}
	switch {
	case needsValue && len(args) != 2:
		return "", nil, errUsage
	case !needsValue && len(args) != 1:
		return "", nil, errUsage
	case needsValue:
		payload = args[1]
	}
	return verb, payload, nil
}

// console reads control lines from r until EOF or ctx ends.
func console(ctx context.Context, conn *bus.Connection, r io.Reader, w io.Writer) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		verb, payload, err := parseCommand(sc.Text())
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		if verb == "" {
			continue
		}
		rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		reply, err := conn.RequestWait(rctx, conn.NewMessage(bus.T("muic", "control", verb), payload, false))
		cancel()
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		printReply(w, reply.Payload)
	}
}

func printReply(w io.Writer, p any) {
	switch v := p.(type) {
	case types.MuicAck:
		printState(w, v.State)
	case types.ErrorReply:
		fmt.Fprintf(w, "error: %s\n", v.Error)
	default:
		fmt.Fprintf(w, "%v\n", v)
	}
}

func printState(w io.Writer, st types.MuicState) {
	fmt.Fprintf(w, "device=%s adc=%s path=%s usb=%s chg_type=%s tier=%s afc_disabled=%t uart_en=%t usb_sel=%s uart_sel=%s otg_test=%t jig=%t\n",
		st.Device, st.ADC, st.Path, st.USBState, st.ChargerType, st.Tier,
		st.AFCDisabled, st.UARTEnabled, st.USBSel, st.UARTSel, st.OTGTest, st.Jig)
}
