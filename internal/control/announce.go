package control

import "errors"

// Announcer tells peer processes that this process acted on a local request.
type Announcer interface {
	Announce(k Kind) error
}

// Announcers fans an announcement out to several peers and joins their errors.
type Announcers []Announcer

func (as Announcers) Announce(k Kind) error {
	var errs []error
	for _, a := range as {
		if a == nil {
			continue
		}
		if err := a.Announce(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards announcements.
type Nop struct{}

func (Nop) Announce(Kind) error { return nil }
