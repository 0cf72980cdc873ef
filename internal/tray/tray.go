// Package tray implements the persistent control surface: Show, Hide and Quit.
package tray

import (
	"github.com/sirupsen/logrus"
)

// Pets is the part of the pet manager the tray drives.
type Pets interface {
	Show()
	Hide()
	Visible() bool
	Shutdown() error
}

// Action identifies a tray entry.
type Action int

const (
	ActionShow Action = iota
	ActionHide
	ActionQuit
)

// Entry is one fixed tray menu item.
type Entry struct {
	Action Action
	Label  string
	Key    string
}

var entries = []Entry{
	{Action: ActionShow, Label: "Show", Key: "s"},
	{Action: ActionHide, Label: "Hide", Key: "h"},
	{Action: ActionQuit, Label: "Quit", Key: "q"},
}

// Controller routes tray actions to the pets.
type Controller struct {
	pets Pets
	l    logrus.FieldLogger
	done bool
}

// New returns a Controller for pets.
func New(pets Pets, l logrus.FieldLogger) *Controller {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Controller{pets: pets, l: l}
}

// Entries returns the tray menu in display order.
func (c *Controller) Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Show makes every pet visible.
func (c *Controller) Show() {
	if c.done {
		return
	}
	c.pets.Show()
	c.l.Debugf("Pets shown from tray.")
}

// Hide hides every pet. The tray stays available.
func (c *Controller) Hide() {
	if c.done {
		return
	}
	c.pets.Hide()
	c.l.Debugf("Pets hidden from tray.")
}

// Quit persists settings and tears every pet down. A write failure is
// returned after teardown; the caller still exits.
func (c *Controller) Quit() error {
	if c.done {
		return nil
	}
	c.done = true
	err := c.pets.Shutdown()
	if err != nil {
		c.l.WithError(err).Errorf("Settings were not saved on quit.")
	}
	return err
}

// Run dispatches an action. It reports whether the application should exit.
func (c *Controller) Run(a Action) (bool, error) {
	switch a {
	case ActionShow:
		c.Show()
	case ActionHide:
		c.Hide()
	case ActionQuit:
		return true, c.Quit()
	}
	return false, nil
}

// Done reports whether Quit has run.
func (c *Controller) Done() bool {
	return c.done
}
