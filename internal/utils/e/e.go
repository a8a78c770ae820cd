package e

import "fmt"

// Wrap annotates err with msg. A nil err stays nil.
func Wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
