package pricetable

// ViewportClass is the coarse screen size reported by the client.
type ViewportClass string

const (
	ViewportMobile  ViewportClass = "mobile"
	ViewportTablet  ViewportClass = "tablet"
	ViewportDesktop ViewportClass = "desktop"
)

// SectionState is the open/closed state of the collapsible stock section.
type SectionState int

const (
	SectionExpanded SectionState = iota
	SectionCollapsed
)

func (s SectionState) String() string {
	if s == SectionCollapsed {
		return "collapsed"
	}
	return "expanded"
}

// SectionInput is what drives automatic transitions.
type SectionInput struct {
	Viewport ViewportClass
	Path     string
}

// Section is the reducer state.  The zero value is expanded with no input
// seen yet.
type Section struct {
	State SectionState
	input *SectionInput
}

// ReduceSection applies an input.  A new path or a new viewport class
// recomputes the default: collapsed on mobile, expanded elsewhere.  Replaying
// the current input keeps a manual toggle.
func ReduceSection(s Section, in SectionInput) Section {
	if s.input != nil && *s.input == in {
		return s
	}
	next := Section{State: SectionExpanded, input: &in}
	if in.Viewport == ViewportMobile {
		next.State = SectionCollapsed
	}
	return next
}

// Toggle flips the state on operator request.
func (s Section) Toggle() Section {
	if s.State == SectionCollapsed {
		s.State = SectionExpanded
	} else {
		s.State = SectionCollapsed
	}
	return s
}
