package route

import (
	"strings"

	"github.com/ppiankov/askroute/internal/extract"
)

// Keyword is one routing cue. A multi-word Term matches as a whole-word
// phrase; a Stem term matches any token starting with it; any other term
// must equal a token.
type Keyword struct {
	Term string
	Stem bool
}

// Matches reports whether the keyword occurs in a normalized question
func (k Keyword) Matches(phrase string, terms []string) bool {
	if strings.Contains(k.Term, " ") {
		return extract.ContainsPhrase(phrase, k.Term)
	}
	for _, t := range terms {
		if t == k.Term || (k.Stem && strings.HasPrefix(t, k.Term)) {
			return true
		}
	}
	return false
}

func exact(term string) Keyword {
	return Keyword{Term: term}
}

func stem(term string) Keyword {
	return Keyword{Term: term, Stem: true}
}

// GeoKeywords are the default cues for the geo dataset
var GeoKeywords = []Keyword{
	exact("geo"), exact("geodata"), exact("map"), exact("kaart"),
	stem("bodem"), stem("grond"), exact("mobiscore"), stem("overstrom"),
	stem("water"), stem("weg"), exact("wegcategorie"), stem("wegsegment"),
	stem("lucht"), stem("hoogte"), exact("distance"), exact("overlap"),
	stem("rivier"), stem("gebied"), exact("perceel"),
}

// RegulationKeywords are the default cues for the regulation dataset
var RegulationKeywords = []Keyword{
	exact("regulation"), stem("verordening"), exact("artikel"), exact("art"),
	stem("bouw"), exact("bouwvlak"), exact("bouwlaag"), exact("bosdecreet"),
	stem("groen"), exact("groendak"), stem("vergunning"), exact("omgevingsvergunning"),
	stem("voorschrift"), stem("bestemming"), stem("sloop"),
	exact("define"), exact("definieer"), exact("definitie"),
}
