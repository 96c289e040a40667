// Package opener hands URLs to the operating system.
package opener

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"strings"
	"sync"

	"github.com/sw33tLie/applinks/internal/utils"
)

const DefaultCommand = "xdg-open"

// webSchemes can always be opened: they are where browser fallbacks go.
var webSchemes = []string{"http", "https"}

// Command opens URLs by running an external program with the URL as its last
// argument. Only http, https and the configured schemes are accepted.
type Command struct {
	Name    string
	Args    []string
	schemes map[string]bool
}

// NewCommand parses command ("xdg-open", "open -a Safari", ...) into a Command.
func NewCommand(command string, schemes []string) (*Command, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{DefaultCommand}
	}
	return &Command{Name: fields[0], Args: fields[1:], schemes: schemeSet(schemes)}, nil
}

func (c *Command) CanOpen(u *url.URL) bool {
	if u == nil || !c.schemes[strings.ToLower(u.Scheme)] {
		return false
	}
	_, err := exec.LookPath(c.Name)
	return err == nil
}

func (c *Command) Open(ctx context.Context, u *url.URL) (bool, error) {
	if !c.CanOpen(u) {
		return false, nil
	}
	args := append(append([]string{}, c.Args...), u.String())
	out, err := exec.CommandContext(ctx, c.Name, args...).CombinedOutput()
	if err != nil {
		utils.Log.Debugf("%s %s: %s", c.Name, u, strings.TrimSpace(string(out)))
		return false, fmt.Errorf("running %s: %w", c.Name, err)
	}
	return true, nil
}

// DryRun accepts the same schemes as Command but only prints what it would open.
type DryRun struct {
	Out io.Writer

	schemes map[string]bool
	mu      sync.Mutex
	opened  []string
}

func NewDryRun(out io.Writer, schemes []string) *DryRun {
	return &DryRun{Out: out, schemes: schemeSet(schemes)}
}

func (d *DryRun) CanOpen(u *url.URL) bool {
	return u != nil && d.schemes[strings.ToLower(u.Scheme)]
}

func (d *DryRun) Open(_ context.Context, u *url.URL) (bool, error) {
	if !d.CanOpen(u) {
		return false, nil
	}
	d.mu.Lock()
	d.opened = append(d.opened, u.String())
	d.mu.Unlock()
	if d.Out != nil {
		fmt.Fprintf(d.Out, "would open %s\n", u)
	}
	return true, nil
}

// Opened lists the URLs passed to Open, in order.
func (d *DryRun) Opened() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.opened...)
}

func schemeSet(schemes []string) map[string]bool {
	set := make(map[string]bool, len(schemes)+len(webSchemes))
	for _, s := range webSchemes {
		set[s] = true
	}
	for _, s := range schemes {
		s = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "://"))
		if s != "" {
			set[s] = true
		}
	}
	return set
}
