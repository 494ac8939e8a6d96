package maintenance

import "fmt"

// BadHostError is returned when the refresh protocol is invoked out of
// order (e.g. refreshing the probability tensor before the Collins-Gisin
// tensor exists).
type BadHostError struct {
	Detail string
}

func (e *BadHostError) Error() string {
	return fmt.Sprintf("maintenance: %s", e.Detail)
}
