package guard

import "fmt"

// OutcomeKind is what a guard decided to do with a request
type OutcomeKind int

const (
	OutcomeLoading OutcomeKind = iota
	OutcomeRender
	OutcomeRedirect
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeLoading:
		return "loading"
	case OutcomeRender:
		return "render"
	case OutcomeRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Redirect reasons
const (
	ReasonPending         = "pending"
	ReasonAllowed         = "allowed"
	ReasonUnauthenticated = "unauthenticated"
	ReasonRoleMismatch    = "role_mismatch"
	ReasonSignedIn        = "signed_in"
	ReasonUnknownRole     = "unknown_role"
)

// Outcome is a guard decision. For redirects Target is the destination,
// From the location the user asked for (empty when it should not be
// remembered) and Replace whether the redirect replaces the current entry.
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Target  string      `json:"target,omitempty"`
	From    string      `json:"from,omitempty"`
	Replace bool        `json:"replace,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

func loading() Outcome {
	return Outcome{Kind: OutcomeLoading, Reason: ReasonPending}
}

func render(reason string) Outcome {
	return Outcome{Kind: OutcomeRender, Reason: reason}
}

func redirect(target, from, reason string) Outcome {
	return Outcome{
		Kind:    OutcomeRedirect,
		Target:  target,
		From:    from,
		Replace: true,
		Reason:  reason,
	}
}

// IsRedirect reports whether the outcome is a redirect
func (o Outcome) IsRedirect() bool {
	return o.Kind == OutcomeRedirect
}

func (o Outcome) String() string {
	if o.Kind != OutcomeRedirect {
		return fmt.Sprintf("%s (%s)", o.Kind, o.Reason)
	}
	if o.From != "" {
		return fmt.Sprintf("redirect %s from %s (%s)", o.Target, o.From, o.Reason)
	}
	return fmt.Sprintf("redirect %s (%s)", o.Target, o.Reason)
}
