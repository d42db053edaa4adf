package locale

import (
	"strings"
)

// Page is a screen of the marketing site.
type Page string

const (
	PageIntro    Page = "intro"
	PageSolution Page = "solution"
	PageScale    Page = "scale"
	PageLegacy   Page = "legacy_pricing"
)

// Route is the result of resolving a site path. When Redirect is set the
// client should replace the location with it and resolve again.
type Route struct {
	Path        string `json:"path"`
	Page        Page   `json:"page,omitempty"`
	Region      Region `json:"region,omitempty"`
	ChallengeID string `json:"challenge_id,omitempty"`
	Redirect    string `json:"redirect,omitempty"`
}

// Redirected reports whether the route points elsewhere.
func (r Route) Redirected() bool { return r.Redirect != "" }

// Resolver maps site paths to pages. KnownChallenge decides which solution ids
// exist; a nil func accepts every id. Default is the region legacy links land
// on and falls back to UK.
type Resolver struct {
	KnownChallenge func(id string) bool
	Default        Region
}

func (rs Resolver) fallback() Region {
	if rs.Default == "" {
		return UK
	}
	return rs.Default
}

// Resolve maps a path onto a page, following the site's legacy redirects.
// Unknown paths redirect to "/" and unknown challenges to the region home.
func (rs Resolver) Resolve(path string) Route {
	clean := "/" + strings.Trim(strings.TrimSpace(path), "/")
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	if clean == "/" {
		parts = nil
	}
	def := rs.fallback()
	home := Route{Path: clean, Page: PageIntro, Region: def}

	switch len(parts) {
	case 0:
		return home
	case 1:
		switch strings.ToLower(parts[0]) {
		case "scale", "pricing":
			return redirect(clean, def.Prefix()+"/scale")
		case "legacy":
			return redirect(clean, "/legacy"+def.Prefix())
		}
		if region, err := ParseRegion(parts[0]); err == nil {
			return Route{Path: clean, Page: PageIntro, Region: region}
		}
	case 2:
		if strings.EqualFold(parts[0], "legacy") {
			if region, err := ParseRegion(parts[1]); err == nil {
				return Route{Path: clean, Page: PageLegacy, Region: region}
			}
			break
		}
		if strings.EqualFold(parts[0], "solutions") {
			return redirect(clean, def.Prefix()+"/solutions/"+parts[1])
		}
		region, err := ParseRegion(parts[0])
		if err != nil {
			break
		}
		switch strings.ToLower(parts[1]) {
		case "scale":
			return Route{Path: clean, Page: PageScale, Region: region}
		case "pricing":
			return redirect(clean, region.Prefix()+"/scale")
		}
	case 3:
		region, err := ParseRegion(parts[0])
		if err != nil || !strings.EqualFold(parts[1], "solutions") {
			break
		}
		id := parts[2]
		if rs.KnownChallenge != nil && !rs.KnownChallenge(id) {
			return redirect(clean, region.Prefix())
		}
		return Route{Path: clean, Page: PageSolution, Region: region, ChallengeID: id}
	}
	return redirect(clean, "/")
}

func redirect(from, to string) Route {
	return Route{Path: from, Redirect: to}
}
