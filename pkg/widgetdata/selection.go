package widgetdata

import "strconv"

// SiteSelection is the site a widget was configured for.
type SiteSelection struct {
	id  string
	set bool
}

// Unspecified is a selection with no site chosen.
func Unspecified() SiteSelection {
	return SiteSelection{}
}

// Identifier selects the site with the given id. An empty id is the same
// as Unspecified.
func Identifier(id string) SiteSelection {
	return SiteSelection{id: id, set: id != ""}
}

// ID returns the selected site id and whether one was selected.
func (s SiteSelection) ID() (string, bool) {
	return s.id, s.set
}

func (s SiteSelection) String() string {
	if !s.set {
		return "unspecified"
	}
	return s.id
}

// EffectiveSiteID picks the explicit selection, else the default site.
func EffectiveSiteID(selection SiteSelection, defaultSiteID *int) (string, bool) {
	if id, ok := selection.ID(); ok {
		return id, true
	}
	if defaultSiteID != nil {
		return strconv.Itoa(*defaultSiteID), true
	}
	return "", false
}
