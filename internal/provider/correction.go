package provider

import (
	"net/url"
	"strings"

	"github.com/linkbridge/linkbridge/internal/classifier"
	customerrors "github.com/linkbridge/linkbridge/internal/errors"
)

type action int

const (
	actionSucceed action = iota
	actionRetry
	actionFail
)

const (
	stageAppendAPI = "append-api"
	stageRootAPI   = "root-api"
)

// transition is the state machine's answer to one attempt outcome.
type transition struct {
	action action
	base   string
	stage  string
}

type candidate struct {
	base  string
	stage string
}

// correctionPlan drives Attempt(base) -> Success | Retry(corrected) | Fail.
// Corrections are only taken when an attempt returned an HTML page, and at
// most budget of them are taken.
type correctionPlan struct {
	current    string
	candidates []candidate
	budget     int
	used       int
}

func newCorrectionPlan(base string, budget int) *correctionPlan {
	return &correctionPlan{
		current:    base,
		candidates: correctedEndpoints(base),
		budget:     budget,
	}
}

func (p *correctionPlan) next(o classifier.Outcome) transition {
	if o.OK() {
		return transition{action: actionSucceed}
	}
	if o.Kind != customerrors.KindProviderMalformedResponse || !o.HTML {
		return transition{action: actionFail}
	}
	if p.used >= p.budget || p.used >= len(p.candidates) {
		return transition{action: actionFail}
	}
	c := p.candidates[p.used]
	p.used++
	p.current = c.base
	return transition{action: actionRetry, base: c.base, stage: c.stage}
}

// correctedEndpoints returns, in order, the alternative bases tried when base
// answers with HTML:
//
//	https://site.com/member      -> https://site.com/member/api, https://site.com/api
//	https://site.com/tools/api   -> https://site.com/api
//	https://site.com/api         -> (none)
func correctedEndpoints(base string) []candidate {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return nil
	}

	var out []candidate
	trimmedPath := strings.TrimRight(u.Path, "/")

	appended := ""
	if !strings.HasSuffix(trimmedPath, "/api") {
		v := *u
		v.Path = trimmedPath + "/api"
		v.RawPath = ""
		appended = v.String()
		out = append(out, candidate{base: appended, stage: stageAppendAPI})
	}

	root := u.Scheme + "://" + u.Host + "/api"
	if root != strings.TrimRight(base, "/") && root != appended {
		out = append(out, candidate{base: root, stage: stageRootAPI})
	}
	return out
}
