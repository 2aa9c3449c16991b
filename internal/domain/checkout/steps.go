package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStep          = errors.New("invalid checkout step")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// Step is a stage of the checkout flow. Steps are ordered; a session only
// moves forward one step at a time through its guard.
type Step int

const (
	StepIdentity Step = iota
	StepShipping
	StepPayment
	StepReview
	StepComplete
)

var stepNames = map[Step]string{
	StepIdentity: "identity",
	StepShipping: "shipping",
	StepPayment:  "payment",
	StepReview:   "review",
	StepComplete: "complete",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ParseStep accepts the lower-case step name
func ParseStep(name string) (Step, error) {
	for step, n := range stepNames {
		if n == name {
			return step, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStep, name)
}

func (s Step) MarshalText() ([]byte, error) {
	if _, ok := stepNames[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(text []byte) error {
	step, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// locked reports whether the cart and the checkout selections are frozen
func (s Step) locked() bool {
	return s >= StepReview
}

// PaymentMethod is recorded on the order; no gateway is involved
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case PaymentCard, PaymentUPI:
		return m, nil
	}
	return "", ErrInvalidPaymentMethod
}

func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentUPI
}
