package pricetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduceSection(t *testing.T) {
	s := ReduceSection(Section{}, SectionInput{Viewport: ViewportDesktop, Path: "/offre/1/stocks"})
	assert.Equal(t, SectionExpanded, s.State)

	s = s.Toggle()
	s = ReduceSection(s, SectionInput{Viewport: ViewportDesktop, Path: "/offre/1/stocks"})
	assert.Equal(t, SectionCollapsed, s.State, "same input keeps the manual toggle")

	s = ReduceSection(s, SectionInput{Viewport: ViewportMobile, Path: "/offre/1/stocks"})
	assert.Equal(t, SectionCollapsed, s.State)

	s = s.Toggle()
	s = ReduceSection(s, SectionInput{Viewport: ViewportMobile, Path: "/offre/1/recapitulatif"})
	assert.Equal(t, SectionCollapsed, s.State, "navigation on mobile collapses again")

	s = ReduceSection(s, SectionInput{Viewport: ViewportTablet, Path: "/offre/1/recapitulatif"})
	assert.Equal(t, SectionExpanded, s.State)
}
