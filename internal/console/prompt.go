// Package console runs the one-time time-zone prompt on the operator console,
// either the process's stdio or a serial port.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Prompt prints the menu to w, waits for one line on r and returns the chosen
// zone. Anything other than 1-7, a read error or an expired timeout keeps def.
// A zero timeout waits until ctx is done.
//
// The read runs in its own goroutine; if ctx ends first that goroutine stays
// blocked on r until the next line or until r is closed.
func Prompt(ctx context.Context, r io.Reader, w io.Writer, def Zone, timeout time.Duration, logger *slog.Logger) Zone {
	if logger == nil {
		logger = slog.Default()
	}
	printMenu(w, def)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && line == "" {
			errs <- err
			return
		}
		lines <- line
	}()

	var selection int
	select {
	case line := <-lines:
		selection = parseInt(line)
	case err := <-errs:
		logger.Warn("console read failed", "error", err)
	case <-ctx.Done():
		logger.Warn("no time zone selected", "reason", ctx.Err())
	}
	fmt.Fprintln(w, selection)

	z, ok := Select(selection)
	if !ok {
		logger.Info("invalid selection, using default time zone", "selection", selection, "zone", def.ID)
		return def
	}
	logger.Info("time zone set", "zone", z.ID)
	return z
}

func printMenu(w io.Writer, def Zone) {
	fmt.Fprintf(w, "Select your time zone (default %s):\n", def.ID)
	for i, z := range Zones {
		fmt.Fprintf(w, "%d) %s\n", i+1, z.Label)
	}
	fmt.Fprintf(w, "-> Enter a number between 1-%d to select your time zone: ", len(Zones))
}

// parseInt reads the first integer in s: leading characters other than a
// digit or '-' are skipped and parsing stops at the first non-digit after it.
// It returns 0 when s holds no digits.
func parseInt(s string) int {
	i := 0
	for i < len(s) && s[i] != '-' && (s[i] < '0' || s[i] > '9') {
		i++
	}
	neg := false
	if i < len(s) && s[i] == '-' {
		neg = true
		i++
	}
	n := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n > 1<<31 {
			break
		}
	}
	if neg {
		return -n
	}
	return n
}
