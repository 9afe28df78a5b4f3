package model

// Categories is the fixed set of topic labels a post may carry.
// Labels are matched byte for byte.
var Categories = []string{
	"Climate Change & Global Warming",
	"Sustainable Living",
	"Renewable Energy",
	"Pollution & Waste Management",
	"Biodiversity & Conservation",
	"Environmental Technology & Innovation",
	"Green Business & Economy",
	"Environmental Laws & Policies",
	"Agriculture & Food Sustainability",
	"Water & Ocean Conservation",
}

var categorySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		m[c] = struct{}{}
	}
	return m
}()

// IsValidCategory reports whether c is one of Categories.
func IsValidCategory(c string) bool {
	_, ok := categorySet[c]
	return ok
}
